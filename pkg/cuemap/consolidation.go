package cuemap

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultConsolidationInterval = time.Hour
	consolidationMinGroupSize    = 5
	consolidationMinJaccard      = 0.8
	consolidationContentChars    = 200
)

// Consolidator periodically scans a tenant's records for near-duplicate
// cue-sets and merges them into one additive "gist" record. Originals
// are never deleted or hidden from recall by default.
type Consolidator struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	runs     int64
	gists    int64
}

func NewConsolidator(interval time.Duration) *Consolidator {
	if interval <= 0 {
		interval = defaultConsolidationInterval
	}
	return &Consolidator{interval: interval}
}

// Start runs the periodic sweep against engine e until Stop is called
// or ctx is cancelled.
func (c *Consolidator) Start(ctx context.Context, e *Engine) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	ticker := time.NewTicker(c.interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.runs++
				n, err := e.Consolidate()
				if err != nil {
					e.logf("consolidation sweep failed: %v", err)
					continue
				}
				c.gists += int64(n)
			}
		}
	}()
}

func (c *Consolidator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
}

func (c *Consolidator) Stats() (runs, gists int64) {
	return c.runs, c.gists
}

// Consolidate runs one consolidation pass: group records by near-
// identical cue sets (pairwise Jaccard >= 0.8, group size >= 5) and
// create one additive gist record per group, skipping groups that
// already have a gist covering the same constituent id set (idempotency).
func (e *Engine) Consolidate() (int, error) {
	records := e.store.All()
	if len(records) < consolidationMinGroupSize {
		return 0, nil
	}

	existingGists := make(map[string]struct{})
	for _, r := range records {
		if r.Metadata["gist"] == "true" {
			if key, ok := r.Metadata["consolidated_ids"]; ok {
				existingGists[key] = struct{}{}
			}
		}
	}

	used := make(map[string]bool, len(records))
	created := 0

	for i, r := range records {
		if used[r.ID] || r.Metadata["gist"] == "true" {
			continue
		}
		group := []*MemoryRecord{r}
		for j := i + 1; j < len(records); j++ {
			other := records[j]
			if used[other.ID] || other.Metadata["gist"] == "true" {
				continue
			}
			if jaccard(r.Cues, other.Cues) >= consolidationMinJaccard {
				group = append(group, other)
			}
		}
		if len(group) < consolidationMinGroupSize {
			continue
		}

		key := groupKey(group)
		if _, exists := existingGists[key]; exists {
			for _, g := range group {
				used[g.ID] = true
			}
			continue
		}

		gist := buildGist(group, key, time.Now())
		e.storeRecord(gist)
		created++

		for _, g := range group {
			used[g.ID] = true
		}
	}
	return created, nil
}

func jaccard(a, b map[Cue]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter, union := 0, 0
	seen := make(map[Cue]struct{}, len(a)+len(b))
	for c := range a {
		seen[c] = struct{}{}
		if _, ok := b[c]; ok {
			inter++
		}
	}
	for c := range b {
		seen[c] = struct{}{}
	}
	union = len(seen)
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func groupKey(group []*MemoryRecord) string {
	ids := make([]string, len(group))
	for i, g := range group {
		ids[i] = g.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func buildGist(group []*MemoryRecord, constituentKey string, now time.Time) *MemoryRecord {
	cueUnion := make(map[Cue]struct{})
	var parts []string
	for _, g := range group {
		for c := range g.Cues {
			cueUnion[c] = struct{}{}
		}
		content := g.Content
		if len(content) > consolidationContentChars {
			content = content[:consolidationContentChars]
		}
		parts = append(parts, content)
	}
	cueUnion["gist:true"] = struct{}{}
	cueUnion[Cue("consolidated_from:"+strconv.Itoa(len(group)))] = struct{}{}

	cues := make([]Cue, 0, len(cueUnion))
	for c := range cueUnion {
		cues = append(cues, c)
	}

	rec := newRecord(strings.Join(parts, " "), cues, map[string]string{
		"gist":             "true",
		"consolidated_from": strconv.Itoa(len(group)),
		"consolidated_ids":  constituentKey,
	}, now)
	rec.Salience = computeSalience(len(cues), nil, 0)
	return rec
}
