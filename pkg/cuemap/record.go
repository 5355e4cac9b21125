package cuemap

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Cue is a normalized tag, either a bare token or a "key:value" pair.
type Cue string

// WeightedCue pairs a cue with its contribution weight in a query or in
// pattern-completion expansion. Weights are positive; they are not capped
// at 1 (the lexicon weights phrase cues 1.5).
type WeightedCue struct {
	Cue    Cue
	Weight float64
}

// MemoryRecord is CueMap's stored unit: content plus the cue set that
// indexes it, reinforcement/recency bookkeeping, and a derived salience
// multiplier.
type MemoryRecord struct {
	ID            string
	Content       string
	Cues          map[Cue]struct{}
	Metadata      map[string]string
	CreatedAt     time.Time
	LastAccess    time.Time
	Reinforcement uint32
	Salience      float64
}

// newRecord builds a MemoryRecord with a fresh uuid-v4 id.
func newRecord(content string, cues []Cue, metadata map[string]string, now time.Time) *MemoryRecord {
	set := make(map[Cue]struct{}, len(cues))
	for _, c := range cues {
		set[c] = struct{}{}
	}
	md := metadata
	if md == nil {
		md = map[string]string{}
	}
	return &MemoryRecord{
		ID:         uuid.New().String(),
		Content:    content,
		Cues:       set,
		Metadata:   md,
		CreatedAt:  now,
		LastAccess: now,
		Salience:   1.0,
	}
}

// cueSlice returns the record's cues as a stable, sorted slice.
func (r *MemoryRecord) cueSlice() []Cue {
	out := make([]Cue, 0, len(r.Cues))
	for c := range r.Cues {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// clone returns a shallow-independent copy safe to hand to a caller
// without risking concurrent mutation of the shared record.
func (r *MemoryRecord) clone() *MemoryRecord {
	cues := make(map[Cue]struct{}, len(r.Cues))
	for c := range r.Cues {
		cues[c] = struct{}{}
	}
	md := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		md[k] = v
	}
	cp := *r
	cp.Cues = cues
	cp.Metadata = md
	return &cp
}

func (r *MemoryRecord) hasCue(c Cue) bool {
	_, ok := r.Cues[c]
	return ok
}
