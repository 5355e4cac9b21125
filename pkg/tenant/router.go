// Package tenant routes requests to per-project isolated cuemap.Engine
// instances. Each tenant is a fully independent engine: its own shards,
// job queue, and consolidation loop, keyed by the caller's project id
// (the X-Project-ID HTTP header) and persisted to its own snapshot file.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/lexicon"
)

// Logger is the minimal logging surface the router needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Config tunes the router and the template EngineConfig every tenant's
// engine is constructed with.
type Config struct {
	DataDir          string
	SnapshotInterval time.Duration
	MaxTenants       int
	Engine           cuemap.EngineConfig
}

// Router lazily creates and owns one cuemap.Engine per tenant id.
type Router struct {
	mu       sync.RWMutex
	cfg      Config
	logger   Logger
	engines  map[string]*cuemap.Engine
	lexicons map[string]*lexicon.Resolver

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewRouter creates a Router. Call Start to begin the periodic snapshot
// sweep; engines are created lazily on first Get regardless.
func NewRouter(cfg Config, logger Logger) *Router {
	if logger == nil {
		logger = nopLogger{}
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	return &Router{
		cfg:      cfg,
		logger:   logger,
		engines:  make(map[string]*cuemap.Engine),
		lexicons: make(map[string]*lexicon.Resolver),
	}
}

// Get returns the tenant's engine, creating and loading it from its
// snapshot file on first access.
func (r *Router) Get(ctx context.Context, tenantID string) (*cuemap.Engine, error) {
	if tenantID == "" {
		return nil, cuemap.ErrTenantMissing("tenant id is required")
	}

	r.mu.RLock()
	e, ok := r.engines[tenantID]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[tenantID]; ok {
		return e, nil
	}

	if r.cfg.MaxTenants > 0 && len(r.engines) >= r.cfg.MaxTenants {
		return nil, cuemap.ErrTenantMissing(fmt.Sprintf("tenant capacity reached (%d)", r.cfg.MaxTenants))
	}

	e = cuemap.New(r.cfg.Engine, nil)
	path := cuemap.SnapshotPath(r.cfg.DataDir, tenantID)
	if err := e.Load(path); err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	r.engines[tenantID] = e
	r.logger.Info("tenant engine created", "tenant_id", tenantID)
	return e, nil
}

// GetLexicon returns the tenant's natural-language lexicon resolver,
// creating and loading its backing engine from its own snapshot file
// (distinct from the tenant's primary memory engine) on first access.
func (r *Router) GetLexicon(ctx context.Context, tenantID string) (*lexicon.Resolver, error) {
	if tenantID == "" {
		return nil, cuemap.ErrTenantMissing("tenant id is required")
	}

	r.mu.RLock()
	lx, ok := r.lexicons[tenantID]
	r.mu.RUnlock()
	if ok {
		return lx, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lx, ok := r.lexicons[tenantID]; ok {
		return lx, nil
	}

	e := cuemap.New(r.cfg.Engine, nil)
	path := cuemap.SnapshotPath(r.cfg.DataDir, tenantID+".lexicon")
	if err := e.Load(path); err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	lx = lexicon.New(e)
	r.lexicons[tenantID] = lx
	return lx, nil
}

// Tenants returns the ids of every tenant engine currently loaded.
func (r *Router) Tenants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of tenant engines currently loaded.
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// Started reports whether Start has been called, used as the
// readiness signal for the /ready endpoint.
func (r *Router) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// Start begins the periodic snapshot-save sweep. Ticker/cancel pattern
// grounded on pkg/cuemap's Consolidator.Start.
func (r *Router) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	ticker := time.NewTicker(r.cfg.SnapshotInterval)
	go func() {
		defer close(r.done)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.SaveAll()
			}
		}
	}()
}

// Stop halts the snapshot sweep and saves every loaded tenant engine
// one final time before stopping it.
func (r *Router) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
	r.SaveAll()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	for id, e := range r.engines {
		if err := e.Stop(); err != nil {
			r.logger.Warn("failed to stop tenant engine", "tenant_id", id, "error", err)
		}
	}
	for id, lx := range r.lexicons {
		if err := lx.Engine().Stop(); err != nil {
			r.logger.Warn("failed to stop tenant lexicon engine", "tenant_id", id, "error", err)
		}
	}
}

// SaveAll snapshots every currently loaded tenant engine, and every
// loaded tenant lexicon engine, to disk.
func (r *Router) SaveAll() {
	r.mu.RLock()
	snapshot := make(map[string]*cuemap.Engine, len(r.engines))
	for id, e := range r.engines {
		snapshot[id] = e
	}
	lexSnapshot := make(map[string]*cuemap.Engine, len(r.lexicons))
	for id, lx := range r.lexicons {
		lexSnapshot[id] = lx.Engine()
	}
	r.mu.RUnlock()

	for id, e := range snapshot {
		path := cuemap.SnapshotPath(r.cfg.DataDir, id)
		if err := e.Save(path); err != nil {
			r.logger.Error("failed to save tenant snapshot", "tenant_id", id, "error", err)
		}
	}
	for id, e := range lexSnapshot {
		path := cuemap.SnapshotPath(r.cfg.DataDir, id+".lexicon")
		if err := e.Save(path); err != nil {
			r.logger.Error("failed to save tenant lexicon snapshot", "tenant_id", id, "error", err)
		}
	}
}
