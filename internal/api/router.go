package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-dashboard/internal/auth"
	"github.com/nerrad567/gray-logic-dashboard/internal/panel"
)

// healthCheckTimeout bounds each component check run by /health.
const healthCheckTimeout = 2 * time.Second

// defaultWSPath is used when the WebSocket config leaves the path empty.
const defaultWSPath = "/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermStateRead))
			r.Get("/state", s.handleGetState)
			r.Get("/topics", s.handleListTopics)
			r.Get("/system", s.handleSystem)
			r.Get(s.wsPath(), s.handleWebSocket)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermTopicsManage))
			r.Post("/topics", s.handleAddTopic)
			r.Delete("/topics", s.handleRemoveTopic)
			r.Post("/topics/clear", s.handleClearTopics)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermControlPublish))
			r.Post("/control/level", s.handlePublishLevel)
			r.Post("/publish", s.handlePublish)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermSessionManage))
			r.Post("/session/connect", s.handleConnect)
		})
	})

	// Dashboard page (embedded via go:embed)
	r.Handle("/*", panel.Handler(s.cfg.PanelDir))

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return s.wsCfg.Path
}

// handleHealth reports server status plus any registered component checks.
// Component failures degrade the status but never fail the request: the
// dashboard stays usable without its broker or telemetry store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"session":    s.controller.State().String(),
		"components": components,
	})
}
