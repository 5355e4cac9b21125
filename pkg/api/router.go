// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cuemap/cuemap/config"
	"github.com/cuemap/cuemap/pkg/api/handlers"
	"github.com/cuemap/cuemap/pkg/api/middleware"
	"github.com/cuemap/cuemap/pkg/logger"

	_ "github.com/cuemap/cuemap/docs/swagger" // Import generated docs
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Health handles health check endpoints.
	Health *handlers.HealthHandler

	// Memories handles the /memories endpoints.
	Memories *handlers.MemoriesHandler

	// Recall handles /recall and /recall/grounded.
	Recall *handlers.RecallHandler

	// Aliases handles the /aliases endpoints.
	Aliases *handlers.AliasesHandler

	// Stats handles GET /stats.
	Stats *handlers.StatsHandler

	// Tenant resolves the per-request X-Project-ID header to a cuemap.Engine.
	Tenant middleware.EngineResolver

	// AuthKeys is the set of valid API keys; empty disables enforcement.
	AuthKeys map[string]struct{}

	// Metrics is the optional metrics recorder.
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))
	r.Use(middleware.Auth(handlers.AuthKeys))

	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}

	if handlers.Tenant != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Tenant(handlers.Tenant))

			if handlers.Memories != nil {
				r.Post("/memories", handlers.Memories.Create)
				r.Get("/memories/{id}", handlers.Memories.Get)
				r.Patch("/memories/{id}/reinforce", handlers.Memories.Reinforce)
			}

			if handlers.Recall != nil {
				r.Post("/recall", handlers.Recall.Recall)
				r.Post("/recall/grounded", handlers.Recall.RecallGrounded)
			}

			if handlers.Aliases != nil {
				r.Post("/aliases", handlers.Aliases.Add)
				r.Post("/aliases/merge", handlers.Aliases.Merge)
				r.Get("/aliases", handlers.Aliases.List)
			}

			if handlers.Stats != nil {
				r.Get("/stats", handlers.Stats.Get)
			}
		})
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
