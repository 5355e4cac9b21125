package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.App.Name != "cuemapd" {
		t.Errorf("expected app name 'cuemapd', got %s", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got %s", cfg.App.Environment)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Log.Format)
	}

	if cfg.Engine.ShardCount != 16 {
		t.Errorf("expected shard count 16, got %d", cfg.Engine.ShardCount)
	}
	if cfg.Engine.JobQueueWorkers != 4 {
		t.Errorf("expected job queue workers 4, got %d", cfg.Engine.JobQueueWorkers)
	}

	if cfg.Tenant.DataDir == "" {
		t.Error("expected non-empty tenant data dir")
	}

	if cfg.Auth.Enabled {
		t.Error("expected auth.enabled to be false by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.App.Name = "test"
				cfg.App.Environment = "development"
				cfg.Server.Port = 8080
				cfg.Log.Level = "info"
				cfg.Log.Format = "json"
				return cfg
			}(),
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.App.Name = ""
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid port",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Server.Port = 99999
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Log.Level = "trace"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid environment",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.App.Environment = "invalid"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "zero shard count",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Engine.ShardCount = 0
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "missing tenant data dir",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.Tenant.DataDir = ""
				return cfg
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "server.port", Message: "must be between 1 and 65535", Value: 99999},
		{Field: "log.level", Message: "must be one of [debug info warn error]", Value: "trace"},
	}

	errMsg := errs.Error()
	if errMsg == "" {
		t.Error("expected error message")
	}
	if errMsg == "no validation errors" {
		t.Error("expected error details")
	}
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		App: AppConfig{
			Name:        "test",
			Environment: "development",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}

	s := cfg.String()
	if s == "" {
		t.Error("expected non-empty string representation")
	}
}

func TestDurationParsing(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout 30s, got %v", cfg.Server.HTTP.ReadTimeout)
	}
	if cfg.Engine.ConsolidationInterval != time.Hour {
		t.Errorf("expected consolidation interval 1h, got %v", cfg.Engine.ConsolidationInterval)
	}
}

func TestLoader_Get(t *testing.T) {
	loader := NewLoader()
	_, _ = loader.Load("", nil)

	val := loader.Get("app.name")
	if val == nil {
		t.Error("expected non-nil value for app.name")
	}

	str := loader.GetString("app.name")
	if str != "cuemapd" {
		t.Errorf("expected 'cuemapd', got '%s'", str)
	}

	port := loader.GetInt("server.port")
	if port != 8080 {
		t.Errorf("expected 8080, got %d", port)
	}

	enabled := loader.GetBool("metrics.enabled")
	if !enabled {
		t.Error("expected metrics.enabled to be true")
	}
}

func TestLoader_Set(t *testing.T) {
	loader := NewLoader()
	_, _ = loader.Load("", nil)

	err := loader.Set("app.name", "custom-app")
	if err != nil {
		t.Errorf("unexpected error setting value: %v", err)
	}
	if loader.GetString("app.name") != "custom-app" {
		t.Errorf("expected 'custom-app', got '%s'", loader.GetString("app.name"))
	}
}

func TestLoader_Print(t *testing.T) {
	loader := NewLoader()
	_, _ = loader.Load("", nil)

	output := loader.Print()
	if output == "" {
		t.Error("expected non-empty print output")
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoadOrDie(t *testing.T) {
	cfg := LoadOrDie("", nil)
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoadOrDie_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for invalid config file")
		}
	}()

	LoadOrDie("/nonexistent/path/config.yaml", nil)
}

func TestLoader_LoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: yaml-test
  environment: production
server:
  port: 9999
log:
  level: debug
  format: text
engine:
  shard_count: 32
  job_queue_workers: 8
tenant:
  data_dir: /tmp/cuemap-test
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(configPath, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "yaml-test" {
		t.Errorf("expected 'yaml-test', got '%s'", cfg.App.Name)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected 9999, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected 'debug', got '%s'", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected 'text', got '%s'", cfg.Log.Format)
	}
	if cfg.Engine.ShardCount != 32 {
		t.Errorf("expected shard count 32, got %d", cfg.Engine.ShardCount)
	}
	if cfg.Tenant.DataDir != "/tmp/cuemap-test" {
		t.Errorf("expected data dir override, got '%s'", cfg.Tenant.DataDir)
	}
}

func TestLoader_LoadJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{
		"app": {
			"name": "json-test",
			"environment": "staging"
		},
		"server": {
			"port": 8888
		},
		"log": {
			"level": "warn",
			"format": "json"
		}
	}`
	if err := os.WriteFile(configPath, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(configPath, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "json-test" {
		t.Errorf("expected 'json-test', got '%s'", cfg.App.Name)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("expected 8888, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected 'warn', got '%s'", cfg.Log.Level)
	}
}

func TestLoader_LoadInvalidFile(t *testing.T) {
	loader := NewLoader()

	_, err := loader.Load("/nonexistent/config.yaml", nil)
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoader_LoadUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("app = 'test'"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	_, err := loader.Load(configPath, nil)
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoader_EnvVars(t *testing.T) {
	if err := os.Setenv("CUEMAP_APP_NAME", "env-test"); err != nil {
		t.Skipf("cannot set environment variable: %v", err)
	}
	if err := os.Setenv("CUEMAP_SERVER_PORT", "7777"); err != nil {
		t.Skipf("cannot set environment variable: %v", err)
	}
	if err := os.Setenv("CUEMAP_LOG_LEVEL", "error"); err != nil {
		t.Skipf("cannot set environment variable: %v", err)
	}
	defer func() {
		os.Unsetenv("CUEMAP_APP_NAME")
		os.Unsetenv("CUEMAP_SERVER_PORT")
		os.Unsetenv("CUEMAP_LOG_LEVEL")
	}()

	loader := NewLoader()
	cfg, err := loader.Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.App.Name == "" {
		t.Error("expected non-empty app name")
	}
}
