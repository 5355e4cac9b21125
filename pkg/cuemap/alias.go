package cuemap

import (
	"sort"
	"sync"
)

// aliasEntry is one weighted synonym link from a source cue to a target cue.
type aliasEntry struct {
	Target Cue
	Weight float64
}

// AliasResolver expands a cue to its weighted one-hop synonyms only —
// aliases never chain (an alias of an alias is not followed).
type AliasResolver struct {
	mu      sync.RWMutex
	aliases map[Cue][]aliasEntry
}

func NewAliasResolver() *AliasResolver {
	return &AliasResolver{aliases: make(map[Cue][]aliasEntry)}
}

// Propose adds or updates a weighted alias edge from -> to. If the edge
// already exists its weight is replaced (last write wins), matching
// reinforcement semantics elsewhere in the engine.
func (r *AliasResolver) Propose(from, to Cue, weight float64) {
	if from == to {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.aliases[from]
	for i, e := range entries {
		if e.Target == to {
			entries[i].Weight = weight
			return
		}
	}
	r.aliases[from] = append(entries, aliasEntry{Target: to, Weight: weight})
}

// Merge declares a and b synonymous by proposing a full-weight (1.0)
// alias edge in each direction, a -> b and b -> a; used by the
// /aliases/merge operation. Existing aliases of either cue are not
// copied to the other.
func (r *AliasResolver) Merge(a, b Cue) {
	r.Propose(a, b, 1.0)
	r.Propose(b, a, 1.0)
}

// Expand returns the one-hop weighted aliases of c, deduplicated by
// target with the maximum weight kept when the same target is reached
// more than once.
func (r *AliasResolver) Expand(c Cue) []WeightedCue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.aliases[c]
	if len(entries) == 0 {
		return nil
	}
	best := make(map[Cue]float64, len(entries))
	for _, e := range entries {
		if cur, ok := best[e.Target]; !ok || e.Weight > cur {
			best[e.Target] = e.Weight
		}
	}
	out := make([]WeightedCue, 0, len(best))
	for t, w := range best {
		out = append(out, WeightedCue{Cue: t, Weight: w})
	}
	// best is built from a map, whose iteration order Go randomizes; sort
	// by cue so repeated expansion of the same aliases always returns the
	// same order, which callers like selectDriver rely on for tiebreaks.
	sort.Slice(out, func(i, j int) bool { return out[i].Cue < out[j].Cue })
	return out
}

// All returns every alias edge, used by snapshotting.
func (r *AliasResolver) All() []AliasTriple {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AliasTriple
	for from, entries := range r.aliases {
		for _, e := range entries {
			out = append(out, AliasTriple{From: from, To: e.Target, Weight: e.Weight})
		}
	}
	return out
}

// LoadAll replaces the alias table wholesale, used by snapshot restore.
func (r *AliasResolver) LoadAll(triples []AliasTriple) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = make(map[Cue][]aliasEntry, len(triples))
	for _, t := range triples {
		r.aliases[t.From] = append(r.aliases[t.From], aliasEntry{Target: t.To, Weight: t.Weight})
	}
}

// AliasTriple is the wire/snapshot representation of one alias edge.
type AliasTriple struct {
	From, To Cue
	Weight   float64
}
