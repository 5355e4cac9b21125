package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "cuemapd",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				Enabled:         true,
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 30 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
				RateLimitRPS:    50,
				RateLimitBurst:  100,
			},
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-Project-ID", "X-Request-ID"},
				MaxAge:         300,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Engine: EngineConfig{
			ShardCount:            16,
			ConsolidationInterval: time.Hour,
			JobQueueCapacity:      1000,
			JobQueueWorkers:       4,
			NormalizeLowercase:    true,
			NormalizeTrim:         true,
		},
		Tenant: TenantConfig{
			DataDir:          "./data/cuemap",
			SnapshotInterval: 5 * time.Minute,
			MaxTenants:       0,
		},
		Auth: AuthConfig{
			Enabled: false,
			Keys:    nil,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}
