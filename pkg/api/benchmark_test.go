package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemap/cuemap/config"
	"github.com/cuemap/cuemap/pkg/api/handlers"
	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/logger"
	"github.com/cuemap/cuemap/pkg/tenant"
)

// setupBenchmarkServer creates a test server for benchmarking.
func setupBenchmarkServer(b *testing.B) (*httptest.Server, func()) {
	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "benchmark",
			Environment: "development",
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 18082,
			HTTP: config.HTTPConfig{
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			},
			CORS: config.CORSConfig{
				Enabled: false,
			},
		},
	}

	log := logger.New(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Output: "stdout",
	})

	router := tenant.NewRouter(tenant.Config{
		DataDir: b.TempDir(),
		Engine:  cuemap.DefaultEngineConfig(),
	}, nil)
	ctx := context.Background()
	router.Start(ctx)

	testHandlers := &Handlers{
		Health:   handlers.NewHealthHandler(router),
		Memories: handlers.NewMemoriesHandler(),
		Recall:   handlers.NewRecallHandler(router),
		Aliases:  handlers.NewAliasesHandler(),
		Stats:    handlers.NewStatsHandler(),
		Tenant:   router,
	}

	httpRouter := NewRouter(cfg, log, testHandlers)
	server := httptest.NewServer(httpRouter)

	cleanup := func() {
		server.Close()
		router.Stop()
	}

	return server, cleanup
}

// BenchmarkHealthCheck benchmarks the health check endpoint.
func BenchmarkHealthCheck(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Get(server.URL + "/health")
		if err != nil {
			b.Fatalf("failed to call health check: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("health check status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkReadyCheck benchmarks the readiness check endpoint.
func BenchmarkReadyCheck(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Get(server.URL + "/ready")
		if err != nil {
			b.Fatalf("failed to call ready check: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("ready check status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkStatusCheck benchmarks the status endpoint.
func BenchmarkStatusCheck(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Get(server.URL + "/status")
		if err != nil {
			b.Fatalf("failed to call status check: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("status check status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkMemorize benchmarks memory creation.
func BenchmarkMemorize(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body, _ := json.Marshal(map[string]any{
			"content": fmt.Sprintf("benchmark memory body %d", i),
			"cues":    []string{"topic:benchmark", "tok:payments"},
		})
		resp, err := client.Post(server.URL+"/memories", "application/json", bytes.NewReader(body))
		if err != nil {
			b.Fatalf("failed to memorize: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			b.Fatalf("memorize status = %v, want %v", resp.StatusCode, http.StatusCreated)
		}
	}
}

// BenchmarkGetMemory benchmarks memory retrieval by id.
func BenchmarkGetMemory(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	body, _ := json.Marshal(map[string]any{
		"content": "benchmark memory for retrieval",
		"cues":    []string{"topic:benchmark"},
	})
	resp, err := client.Post(server.URL+"/memories", "application/json", bytes.NewReader(body))
	if err != nil {
		b.Fatalf("failed to seed memory: %v", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Get(server.URL + "/memories/" + created.ID)
		if err != nil {
			b.Fatalf("failed to get memory: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("get memory status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkRecall benchmarks cue-based recall against a seeded corpus.
func BenchmarkRecall(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	for i := 0; i < 50; i++ {
		body, _ := json.Marshal(map[string]any{
			"content": fmt.Sprintf("seeded memory %d about payments", i),
			"cues":    []string{"topic:payments", "tok:retry"},
		})
		resp, _ := client.Post(server.URL+"/memories", "application/json", bytes.NewReader(body))
		resp.Body.Close()
	}

	recallBody, _ := json.Marshal(map[string]any{
		"cues":  []string{"topic:payments"},
		"limit": 10,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := client.Post(server.URL+"/recall", "application/json", bytes.NewReader(recallBody))
		if err != nil {
			b.Fatalf("failed to recall: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("recall status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkReinforce benchmarks the reinforcement round trip.
func BenchmarkReinforce(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	body, _ := json.Marshal(map[string]any{
		"content": "benchmark memory for reinforcement",
		"cues":    []string{"topic:benchmark"},
	})
	resp, err := client.Post(server.URL+"/memories", "application/json", bytes.NewReader(body))
	if err != nil {
		b.Fatalf("failed to seed memory: %v", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req, _ := http.NewRequest(http.MethodPatch, server.URL+"/memories/"+created.ID+"/reinforce", nil)
		resp, err := client.Do(req)
		if err != nil {
			b.Fatalf("failed to reinforce: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b.Fatalf("reinforce status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
	}
}

// BenchmarkAddAlias benchmarks weighted alias declaration.
func BenchmarkAddAlias(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body, _ := json.Marshal(map[string]any{
			"from":   fmt.Sprintf("tok:variant-%d", i),
			"to":     "tok:canonical",
			"weight": 0.9,
		})
		resp, err := client.Post(server.URL+"/aliases", "application/json", bytes.NewReader(body))
		if err != nil {
			b.Fatalf("failed to add alias: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			b.Fatalf("add alias status = %v, want %v", resp.StatusCode, http.StatusCreated)
		}
	}
}

// BenchmarkEndToEndMemoryLifecycle benchmarks memorize, recall, and
// reinforce together as a single caller round trip.
func BenchmarkEndToEndMemoryLifecycle(b *testing.B) {
	server, cleanup := setupBenchmarkServer(b)
	defer cleanup()

	client := server.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		memBody, _ := json.Marshal(map[string]any{
			"content": fmt.Sprintf("e2e benchmark memory %d", i),
			"cues":    []string{"topic:e2e"},
		})
		resp, err := client.Post(server.URL+"/memories", "application/json", bytes.NewReader(memBody))
		if err != nil {
			b.Fatalf("failed to memorize: %v", err)
		}

		var created struct {
			ID string `json:"id"`
		}
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()

		recallBody, _ := json.Marshal(map[string]any{"cues": []string{"topic:e2e"}, "limit": 5})
		resp, err = client.Post(server.URL+"/recall", "application/json", bytes.NewReader(recallBody))
		if err != nil {
			b.Fatalf("failed to recall: %v", err)
		}
		resp.Body.Close()

		req, _ := http.NewRequest(http.MethodPatch, server.URL+"/memories/"+created.ID+"/reinforce", nil)
		resp, err = client.Do(req)
		if err != nil {
			b.Fatalf("failed to reinforce: %v", err)
		}
		resp.Body.Close()
	}
}
