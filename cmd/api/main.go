package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gorelia/adapters/postgres"
	"gorelia/app"
	"gorelia/internal/api"
	"gorelia/internal/config"
	"gorelia/internal/logging"
	"gorelia/ports"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.NewDefault()

	var repo ports.AnalysisRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		repo = postgres.NewAnalysisRepository(db)
		logger.Info("analysis persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set: running without persistence")
	}

	service := app.NewAnalysisService(repo, logger)
	if err := api.NewApp(service, logger).Start(cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
