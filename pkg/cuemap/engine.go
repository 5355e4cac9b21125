package cuemap

import (
	"context"
	"sync"
	"time"
)

// Logger is the minimal logging surface the engine needs; satisfied by
// pkg/logger.Logger. Kept minimal so pkg/cuemap has no import-time
// dependency on the logging package.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// EngineConfig tunes one Engine instance.
type EngineConfig struct {
	ShardCount             int
	ConsolidationInterval  time.Duration
	JobQueueCapacity       int
	JobQueueWorkers        int
	NormalizationConfig    NormalizationConfig
	Taxonomy               *Taxonomy
}

// DefaultEngineConfig returns an EngineConfig with every field set to
// an explicit, documented default.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ShardCount:            defaultShardCount,
		ConsolidationInterval: defaultConsolidationInterval,
		JobQueueCapacity:      defaultQueueCapacity,
		JobQueueWorkers:       defaultWorkers,
		NormalizationConfig:   DefaultNormalizationConfig(),
	}
}

// Engine is the core CueMap engine: one tenant's isolated instance of
// the cue index, the record store, the co-occurrence matrix, the
// alias resolver, the consolidator, and the background job queue.
type Engine struct {
	mu      sync.RWMutex
	cfg     EngineConfig
	store   *MemoryStore
	cueIndex *CueIndex
	coOccur *CoOccurrenceMatrix
	aliases *AliasResolver
	consolidator *Consolidator
	jobs    *JobQueue
	logger  Logger
	started bool
}

// New builds an Engine. The background job queue's workers run from
// construction; Start begins the periodic consolidation sweep.
// Memorize/Recall/Reinforce work without Start, useful for tests.
func New(cfg EngineConfig, logger Logger) *Engine {
	if cfg.ShardCount < 1 {
		cfg.ShardCount = defaultShardCount
	}
	if logger == nil {
		logger = nopLogger{}
	}
	e := &Engine{
		cfg:      cfg,
		store:    NewMemoryStore(cfg.ShardCount),
		cueIndex: NewCueIndex(cfg.ShardCount),
		coOccur:  NewCoOccurrenceMatrix(),
		aliases:  NewAliasResolver(),
		logger:   logger,
	}
	e.consolidator = NewConsolidator(cfg.ConsolidationInterval)
	e.jobs = NewJobQueue(e, cfg.JobQueueCapacity, cfg.JobQueueWorkers)
	return e
}

func (e *Engine) logf(format string, args ...any) {
	e.logger.Warn(format, args...)
}

// Start begins the periodic consolidation sweep.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	e.consolidator.Start(ctx, e)
	e.started = true
	return nil
}

// Stop halts consolidation and stops the background job queue's workers
// (see JobQueue.Stop).
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	e.consolidator.Stop()
	e.jobs.Stop()
	e.started = false
	return nil
}

// reset discards all in-memory state; used before a snapshot Load.
func (e *Engine) reset() {
	e.store = NewMemoryStore(e.cfg.ShardCount)
	e.cueIndex = NewCueIndex(e.cfg.ShardCount)
	e.coOccur = NewCoOccurrenceMatrix()
	e.aliases = NewAliasResolver()
}

// storeRecord inserts rec into the store and indexes all of its cues,
// observing their pairwise co-occurrence. Shared by Memorize and
// consolidation's gist creation.
func (e *Engine) storeRecord(rec *MemoryRecord) {
	e.store.Put(rec)
	cues := rec.cueSlice()
	for _, c := range cues {
		e.cueIndex.Attach(c, rec.ID)
	}
	if len(cues) > 1 {
		e.coOccur.Observe(cues)
	}
}

// Memorize creates a new record with the given content and raw cue
// strings, normalizing each cue per cfg.NormalizationConfig and
// validating against cfg.Taxonomy if set. Rejected cues are dropped
// silently from the record but returned in the ValidationReport so
// callers (notably the HTTP boundary) can surface them.
func (e *Engine) Memorize(content string, rawCues []string, metadata map[string]string) (*MemoryRecord, ValidationReport, error) {
	if content == "" {
		return nil, ValidationReport{}, ErrInvalidQuery("content must not be empty")
	}

	normalized := make([]string, 0, len(rawCues))
	for _, raw := range rawCues {
		c, _ := NormalizeCue(raw, e.cfg.NormalizationConfig)
		normalized = append(normalized, string(c))
	}

	var report ValidationReport
	accepted := normalized
	if e.cfg.Taxonomy != nil {
		report = ValidateCues(normalized, e.cfg.Taxonomy)
		accepted = report.Accepted
	} else {
		report.Accepted = normalized
	}
	if len(accepted) == 0 {
		return nil, report, ErrInvalidCue("record must have at least one accepted cue")
	}

	cues := make([]Cue, len(accepted))
	for i, c := range accepted {
		cues[i] = Cue(c)
	}

	now := time.Now()
	rec := newRecord(content, cues, metadata, now)
	rec.Salience = computeSalience(len(cues), e.cueLens(cues), 0)
	e.storeRecord(rec)
	return rec.clone(), report, nil
}

func (e *Engine) cueLens(cues []Cue) []int {
	lens := make([]int, len(cues))
	for i, c := range cues {
		lens[i] = e.cueIndex.Len(c)
	}
	return lens
}

// Get returns a clone of the record with the given id.
func (e *Engine) Get(id string) (*MemoryRecord, error) {
	rec := e.store.Get(id)
	if rec == nil {
		return nil, ErrNotFound("record " + id + " not found")
	}
	return rec, nil
}

// EngineStats summarizes an engine for the /stats endpoint.
type EngineStats struct {
	RecordCount    int
	JobsSubmitted  int64
	JobsDropped    int64
	ConsolidationRuns  int64
	ConsolidationGists int64
}

func (e *Engine) Stats() EngineStats {
	runs, gists := e.consolidator.Stats()
	submitted, dropped := e.jobs.Stats()
	return EngineStats{
		RecordCount:        e.store.Len(),
		JobsSubmitted:      submitted,
		JobsDropped:        dropped,
		ConsolidationRuns:  runs,
		ConsolidationGists: gists,
	}
}

// Cues returns every distinct cue currently posted in the engine's
// index, used by the /stats endpoint.
func (e *Engine) Cues() []Cue {
	return e.cueIndex.Cues()
}

// IsHealthy reports liveness: the engine is healthy once constructed.
func (e *Engine) IsHealthy() bool {
	return true
}

// IsReady reports readiness: the engine is ready once Start has completed.
func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started
}

// GetStatus returns a detailed status payload for the /status endpoint.
func (e *Engine) GetStatus() map[string]any {
	stats := e.Stats()
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	return map[string]any{
		"started":             started,
		"record_count":        stats.RecordCount,
		"jobs_submitted":      stats.JobsSubmitted,
		"jobs_dropped":        stats.JobsDropped,
		"consolidation_runs":  stats.ConsolidationRuns,
		"consolidation_gists": stats.ConsolidationGists,
	}
}

// ProposeAlias enqueues a weighted alias proposal as a background job so
// that callers issuing it from the synchronous write path never block.
func (e *Engine) ProposeAlias(from, to Cue, weight float64) {
	e.jobs.Submit(Job{Kind: JobAliasDiscover, Run: func(eng *Engine) {
		eng.aliases.Propose(from, to, weight)
	}})
}

// AddAlias declares a weighted alias edge immediately; unlike
// ProposeAlias this is a direct, synchronous operation, not queued. Used
// by callers (notably the HTTP boundary) that expect the alias to be
// visible to the very next Recall.
func (e *Engine) AddAlias(from, to Cue, weight float64) {
	e.aliases.Propose(from, to, weight)
}

// MergeAliases declares two cues synonymous immediately; unlike
// ProposeAlias this is a direct, synchronous operation, not queued.
func (e *Engine) MergeAliases(a, b Cue) {
	e.aliases.Merge(a, b)
}

// ExpandAlias returns the one-hop weighted aliases of c.
func (e *Engine) ExpandAlias(c Cue) []WeightedCue {
	return e.aliases.Expand(c)
}
