// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/cuemap/cuemap/pkg/api/middleware"
	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
)

// getRequestID extracts the request id middleware.RequestID attached to ctx.
func getRequestID(ctx context.Context) string {
	if id := middleware.GetRequestID(ctx); id != "" {
		return id
	}
	return "unknown"
}

// engineFromRequest returns the tenant engine middleware.Tenant attached
// to the request, writing a 500 and returning ok=false if it is absent
// (meaning the route was wired without the Tenant middleware).
func engineFromRequest(w http.ResponseWriter, r *http.Request) (*cuemap.Engine, bool) {
	eng, ok := middleware.EngineFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer,
			"tenant engine not available", getRequestID(r.Context()))
		return nil, false
	}
	return eng, true
}

// tenantIDFromRequest returns the resolved tenant id middleware.Tenant
// attached to the request.
func tenantIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer,
			"tenant id not available", getRequestID(r.Context()))
		return "", false
	}
	return id, true
}
