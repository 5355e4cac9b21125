package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/config"
	"github.com/cuemap/cuemap/pkg/api/handlers"
	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/logger"
	"github.com/cuemap/cuemap/pkg/tenant"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			HTTP: config.HTTPConfig{ReadTimeout: 30 * time.Second},
			CORS: config.CORSConfig{Enabled: false},
		},
	}
}

func testLogger() logger.Logger {
	return logger.New(&logger.Config{Level: logger.InfoLevel, Format: "json", Output: "stdout"})
}

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	router := tenant.NewRouter(tenant.Config{
		DataDir: t.TempDir(),
		Engine:  cuemap.DefaultEngineConfig(),
	}, nil)

	return &Handlers{
		Health:   handlers.NewHealthHandler(router),
		Memories: handlers.NewMemoriesHandler(),
		Recall:   handlers.NewRecallHandler(router),
		Aliases:  handlers.NewAliasesHandler(),
		Stats:    handlers.NewStatsHandler(),
		Tenant:   router,
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))
	require.NotNil(t, r)
}

func TestRegisterRoutes_HealthEndpoints(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/status", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, tt.wantStatus, w.Code, tt.path)
	}
}

func TestRegisterRoutes_MemoryLifecycle(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	body, _ := json.Marshal(map[string]any{
		"content": "the payment service retries on timeout",
		"cues":    []string{"topic:payments", "tok:retry"},
	})
	req := httptest.NewRequest(http.MethodPost, "/memories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/memories/"+created.ID, nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	reinforceReq := httptest.NewRequest(http.MethodPatch, "/memories/"+created.ID+"/reinforce", nil)
	reinforceW := httptest.NewRecorder()
	r.ServeHTTP(reinforceW, reinforceReq)
	require.Equal(t, http.StatusOK, reinforceW.Code)
}

func TestRegisterRoutes_RecallByCues(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	memBody, _ := json.Marshal(map[string]any{
		"content": "deploy pipeline failed on staging",
		"cues":    []string{"topic:deploys"},
	})
	memReq := httptest.NewRequest(http.MethodPost, "/memories", bytes.NewReader(memBody))
	memW := httptest.NewRecorder()
	r.ServeHTTP(memW, memReq)
	require.Equal(t, http.StatusCreated, memW.Code)

	recallBody, _ := json.Marshal(map[string]any{
		"cues":  []string{"topic:deploys"},
		"limit": 5,
	})
	recallReq := httptest.NewRequest(http.MethodPost, "/recall", bytes.NewReader(recallBody))
	recallW := httptest.NewRecorder()
	r.ServeHTTP(recallW, recallReq)
	require.Equal(t, http.StatusOK, recallW.Code)

	var resp struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(recallW.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
}

func TestRegisterRoutes_AliasesLifecycle(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	addBody, _ := json.Marshal(map[string]any{
		"from":   "tok:db",
		"to":     "tok:database",
		"weight": 0.8,
	})
	addReq := httptest.NewRequest(http.MethodPost, "/aliases", bytes.NewReader(addBody))
	addW := httptest.NewRecorder()
	r.ServeHTTP(addW, addReq)
	require.Equal(t, http.StatusCreated, addW.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/aliases?cue=tok:db", nil)
	listW := httptest.NewRecorder()
	r.ServeHTTP(listW, listReq)
	require.Equal(t, http.StatusOK, listW.Code)

	var resp struct {
		Aliases []struct {
			Cue string `json:"cue"`
		} `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal(listW.Body.Bytes(), &resp))
	require.Len(t, resp.Aliases, 1)
	require.Equal(t, "tok:database", resp.Aliases[0].Cue)
}

func TestRegisterRoutes_Stats(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRoutes_TenantIsolation(t *testing.T) {
	r := NewRouter(testRouterConfig(), testLogger(), newTestHandlers(t))

	body, _ := json.Marshal(map[string]any{
		"content": "only visible to tenant acme",
		"cues":    []string{"topic:secret"},
	})
	req := httptest.NewRequest(http.MethodPost, "/memories", bytes.NewReader(body))
	req.Header.Set("X-Project-ID", "acme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	statsReq := httptest.NewRequest(http.MethodGet, "/stats", nil)
	statsW := httptest.NewRecorder()
	r.ServeHTTP(statsW, statsReq)
	require.Equal(t, http.StatusOK, statsW.Code)

	var resp struct {
		TotalMemories int `json:"total_memories"`
	}
	require.NoError(t, json.Unmarshal(statsW.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.TotalMemories, "default tenant must not see acme's memory")
}
