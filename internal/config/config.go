// Package config reads application configuration from the environment.
package config

import (
	"os"
	"strconv"

	"gorelia/domain/core"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Data     DataConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. URL may be empty:
// the API then runs without persistence.
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds estimator defaults
type AnalysisConfig struct {
	Confidence float64
}

// DataConfig holds file-based data source settings
type DataConfig struct {
	FleetFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Analysis: AnalysisConfig{
			Confidence: getEnvFloatOrDefault("MCF_CONFIDENCE", 0.95),
		},
		Data: DataConfig{
			FleetFile: getEnvOrDefault("FLEET_FILE", ""),
		},
	}

	if config.Analysis.Confidence <= 0 || config.Analysis.Confidence >= 1 {
		return nil, core.NewInvalidInputError("MCF_CONFIDENCE", "must be in the open interval (0, 1)")
	}
	return config, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
