package middleware

import (
	"net/http"
	"strings"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
)

// APIKeyHeader is the header carrying a bearer API key when the
// Authorization header is not used.
const APIKeyHeader = "X-API-Key"

// Auth enforces that every request carries one of the configured API
// keys, via either the X-API-Key header or an "Authorization: Bearer
// <key>" header. An empty keys set disables enforcement entirely (the
// zero-config local-dev case).
func Auth(keys map[string]struct{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKeyFromRequest(r)
			if key == "" {
				response.HandleEngineError(w, cuemap.ErrAuthRequired("missing API key"), GetRequestID(r.Context()))
				return
			}
			if _, ok := keys[key]; !ok {
				response.HandleEngineError(w, cuemap.ErrAuthInvalid("invalid API key"), GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
