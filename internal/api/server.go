// Package api exposes the fleet analysis workflow over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gorelia/app"
	"gorelia/internal/logging"
)

// App represents the HTTP application
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	log     *logging.Logger
}

// NewApp creates the HTTP application around an analysis service
func NewApp(service *app.AnalysisService, log *logging.Logger) *App {
	if log == nil {
		log = logging.NewDefault()
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		log:     log,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Post("/api/mcf/nonparametric", a.handleNonparametric)
	a.router.Post("/api/mcf/parametric", a.handleParametric)
	a.router.Post("/api/fleet/analyze", a.handleFleetAnalyze)
	a.router.Post("/api/fleet/upload", a.handleFleetUpload)
	a.router.Get("/api/analyses", a.handleListAnalyses)
	a.router.Get("/api/analyses/{id}", a.handleGetAnalysis)
	a.router.Get("/api/analyses/{id}/report", a.handleAnalysisReport)
}

// Router exposes the handler for serving and for tests
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(port string) error {
	addr := ":" + port
	a.log.Info("starting MCF API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
