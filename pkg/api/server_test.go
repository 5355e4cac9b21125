package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemap/cuemap/config"
	"github.com/cuemap/cuemap/pkg/api/handlers"
	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/logger"
	"github.com/cuemap/cuemap/pkg/tenant"
)

func newTestServerHandlers(t *testing.T) (*Handlers, func()) {
	t.Helper()
	router := tenant.NewRouter(tenant.Config{
		DataDir: t.TempDir(),
		Engine:  cuemap.DefaultEngineConfig(),
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	router.Start(ctx)

	return &Handlers{
		Health:   handlers.NewHealthHandler(router),
		Memories: handlers.NewMemoriesHandler(),
		Recall:   handlers.NewRecallHandler(router),
		Aliases:  handlers.NewAliasesHandler(),
		Stats:    handlers.NewStatsHandler(),
		Tenant:   router,
	}, func() {
		router.Stop()
		cancel()
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
			HTTP: config.HTTPConfig{
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			},
			CORS: config.CORSConfig{Enabled: false},
		},
	}

	log := logger.New(&logger.Config{Level: logger.InfoLevel, Format: "json", Output: "stdout"})

	testHandlers, cleanup := newTestServerHandlers(t)
	defer cleanup()

	server := NewHTTPServer(cfg, log, testHandlers)

	require.NotNil(t, server)
	require.NotNil(t, server.server)
	require.NotNil(t, server.router)
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 18081,
			HTTP: config.HTTPConfig{
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 5 * time.Second,
				IdleTimeout:  10 * time.Second,
			},
			CORS: config.CORSConfig{Enabled: false},
		},
	}

	log := logger.New(&logger.Config{Level: logger.InfoLevel, Format: "json", Output: "stdout"})

	testHandlers, cleanup := newTestServerHandlers(t)
	defer cleanup()

	server := NewHTTPServer(cfg, log, testHandlers)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:18081/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(1 * time.Second):
		t.Error("Start() did not return after shutdown")
	}
}
