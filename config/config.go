// Package config provides configuration management for CueMap.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for cuemapd.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Engine is the core recall-engine tuning configuration.
	Engine EngineConfig `mapstructure:"engine"`

	// Tenant is the per-project isolation and snapshot configuration.
	Tenant TenantConfig `mapstructure:"tenant"`

	// Auth is the API-key authentication configuration.
	Auth AuthConfig `mapstructure:"auth"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string     `mapstructure:"host"`
	Port int        `mapstructure:"port" validate:"required,min=1,max=65535"`
	HTTP HTTPConfig `mapstructure:"http"`
	CORS CORSConfig `mapstructure:"cors"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}

// EngineConfig tunes the per-tenant cue index, recall, consolidation,
// and background job queue. Mirrors pkg/cuemap.EngineConfig plus the
// normalization/taxonomy knobs that are config-shaped rather than
// code-shaped.
type EngineConfig struct {
	ShardCount            int           `mapstructure:"shard_count" validate:"min=1"`
	ConsolidationInterval time.Duration `mapstructure:"consolidation_interval"`
	JobQueueCapacity      int           `mapstructure:"job_queue_capacity" validate:"min=1"`
	JobQueueWorkers       int           `mapstructure:"job_queue_workers" validate:"min=1"`
	NormalizeLowercase    bool          `mapstructure:"normalize_lowercase"`
	NormalizeTrim         bool          `mapstructure:"normalize_trim"`
	TaxonomyAllowedKeys   []string      `mapstructure:"taxonomy_allowed_keys"`
}

// TenantConfig controls per-project isolation and snapshot persistence.
type TenantConfig struct {
	DataDir          string        `mapstructure:"data_dir" validate:"required"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	MaxTenants       int           `mapstructure:"max_tenants" validate:"min=0"`
}

// AuthConfig controls HTTP API-key authentication.
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Keys    []string `mapstructure:"keys"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings. CueMap does not
// ship an OTLP exporter (see DESIGN.md); this only controls whether
// trace/span ids are read from inbound context for log correlation.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}
