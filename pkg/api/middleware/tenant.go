package middleware

import (
	"context"
	"net/http"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
)

// ProjectIDHeader is the header multi-tenant requests route on.
const ProjectIDHeader = "X-Project-ID"

// DefaultTenantID is used when the caller omits ProjectIDHeader.
const DefaultTenantID = "default"

type engineContextKey struct{}
type tenantIDContextKey struct{}

// EngineResolver returns the engine for a tenant id, creating it on
// first use. Satisfied by *tenant.Router.
type EngineResolver interface {
	Get(ctx context.Context, tenantID string) (*cuemap.Engine, error)
}

// Tenant resolves the caller's project id (X-Project-ID, defaulting to
// "default") to its cuemap.Engine and injects it into the request
// context for handlers to read via EngineFromContext.
func Tenant(resolver EngineResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get(ProjectIDHeader)
			if tenantID == "" {
				tenantID = DefaultTenantID
			}

			eng, err := resolver.Get(r.Context(), tenantID)
			if err != nil {
				response.HandleEngineError(w, err, GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), engineContextKey{}, eng)
			ctx = context.WithValue(ctx, tenantIDContextKey{}, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EngineFromContext returns the tenant engine injected by Tenant.
func EngineFromContext(ctx context.Context) (*cuemap.Engine, bool) {
	eng, ok := ctx.Value(engineContextKey{}).(*cuemap.Engine)
	return eng, ok
}

// TenantIDFromContext returns the resolved tenant id injected by Tenant.
func TenantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantIDContextKey{}).(string)
	return id, ok
}
