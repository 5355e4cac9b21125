package main

// @title CueMap API
// @version 1.0
// @description Temporal-associative memory store: cue-indexed recall with reinforcement, pattern completion, and grounded retrieval.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/cuemap/cuemap

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cuemap/cuemap/config"
	"github.com/cuemap/cuemap/pkg/api"
	"github.com/cuemap/cuemap/pkg/api/handlers"
	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/logger"
	"github.com/cuemap/cuemap/pkg/metrics"
	"github.com/cuemap/cuemap/pkg/tenant"
	"github.com/cuemap/cuemap/pkg/version"
)

const apiKeysEnvVar = "CUEMAP_API_KEYS"

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	overrides := buildOverrides()

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting cuemapd",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	log.Debug("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := os.MkdirAll(cfg.Tenant.DataDir, 0o755); err != nil {
		log.Error("Failed to create tenant data directory", "path", cfg.Tenant.DataDir, "error", err)
		os.Exit(1)
	}

	router := tenant.NewRouter(tenant.Config{
		DataDir:          cfg.Tenant.DataDir,
		SnapshotInterval: cfg.Tenant.SnapshotInterval,
		MaxTenants:       cfg.Tenant.MaxTenants,
		Engine:           engineConfigFromAppConfig(cfg.Engine),
	}, log)
	router.Start(ctx)
	log.Info("Tenant router started", "data_dir", cfg.Tenant.DataDir)

	metricsCfg := metrics.Config{
		Enabled:                      cfg.Metrics.Enabled,
		Port:                         cfg.Metrics.Port,
		Path:                         cfg.Metrics.Path,
		RecallDurationBuckets:        metrics.DefaultConfig().RecallDurationBuckets,
		JobDurationBuckets:           metrics.DefaultConfig().JobDurationBuckets,
		ConsolidationDurationBuckets: metrics.DefaultConfig().ConsolidationDurationBuckets,
		HTTPDurationBuckets:          metrics.DefaultConfig().HTTPDurationBuckets,
	}
	metricsManager := metrics.NewManager(metricsCfg)

	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	apiHandlers := &api.Handlers{
		Health:   handlers.NewHealthHandler(router),
		Memories: handlers.NewMemoriesHandler(),
		Recall:   handlers.NewRecallHandler(router),
		Aliases:  handlers.NewAliasesHandler(),
		Stats:    handlers.NewStatsHandler(),
		Tenant:   router,
		AuthKeys: authKeys(cfg),
		Metrics:  metricsManager,
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("cuemapd is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
	)
	log.Info("Press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	log.Info("Saving tenant snapshots")
	router.SaveAll()

	log.Info("Stopping tenant router")
	router.Stop()

	log.Info("cuemapd stopped gracefully")
}

// engineConfigFromAppConfig translates the config-shaped engine knobs
// into the cuemap package's own EngineConfig, filling in any zero
// values from cuemap.DefaultEngineConfig.
func engineConfigFromAppConfig(c config.EngineConfig) cuemap.EngineConfig {
	out := cuemap.DefaultEngineConfig()
	if c.ShardCount > 0 {
		out.ShardCount = c.ShardCount
	}
	if c.ConsolidationInterval > 0 {
		out.ConsolidationInterval = c.ConsolidationInterval
	}
	if c.JobQueueCapacity > 0 {
		out.JobQueueCapacity = c.JobQueueCapacity
	}
	if c.JobQueueWorkers > 0 {
		out.JobQueueWorkers = c.JobQueueWorkers
	}
	out.NormalizationConfig = cuemap.NormalizationConfig{
		Lowercase: c.NormalizeLowercase,
		Trim:      c.NormalizeTrim,
	}
	if len(c.TaxonomyAllowedKeys) > 0 {
		out.Taxonomy = &cuemap.Taxonomy{AllowedKeys: c.TaxonomyAllowedKeys}
	}
	return out
}

// authKeys resolves the set of valid API keys from config and, as a
// convenience for container deployments, the CUEMAP_API_KEY and
// CUEMAP_API_KEYS environment variables (each comma-separated), in
// addition to the generically-loaded config.Auth.Keys. An empty result
// disables enforcement.
func authKeys(cfg *config.Config) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, k := range cfg.Auth.Keys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	for _, name := range []string{"CUEMAP_API_KEY", apiKeysEnvVar} {
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		for _, k := range strings.Split(raw, ",") {
			k = strings.TrimSpace(k)
			if k != "" {
				keys[k] = struct{}{}
			}
		}
	}
	return keys
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("cuemapd - CueMap temporal-associative memory store\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("cuemapd - temporal-associative memory store with cue-indexed recall\n\n")
	fmt.Printf("Usage: cuemapd [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  cuemapd                                    # Run with default config\n")
	fmt.Printf("  cuemapd -config config.yaml                # Use specific config file\n")
	fmt.Printf("  cuemapd -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  cuemapd -version                           # Print version info\n")
}
