// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/tenant"
)

// HealthHandler handles the process-level health check endpoints. These
// are unversioned and tenant-agnostic: they report on the tenant router
// itself rather than any single tenant's engine.
type HealthHandler struct {
	router *tenant.Router
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(router *tenant.Router) *HealthHandler {
	return &HealthHandler{router: router}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe): ready once the
// router has been started and can serve tenant engines.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.router.Started() {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed process status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"tenants":       h.router.Tenants(),
		"tenant_count":  h.router.Count(),
	})
}
