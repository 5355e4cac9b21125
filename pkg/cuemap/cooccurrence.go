package cuemap

import "sync"

// pairKey canonicalizes an unordered cue pair for map lookup.
type pairKey struct {
	a, b Cue
}

func makePairKey(x, y Cue) pairKey {
	if x <= y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// CoOccurrenceMatrix is a sparse cue x cue count table: it never holds
// record references, only (cue, cue, count) triples, so it can never
// pin record memory.
type CoOccurrenceMatrix struct {
	mu     sync.RWMutex
	counts map[pairKey]uint32
}

func NewCoOccurrenceMatrix() *CoOccurrenceMatrix {
	return &CoOccurrenceMatrix{counts: make(map[pairKey]uint32)}
}

// Observe increments the pairwise count for every combination of cues
// co-occurring on one record.
func (m *CoOccurrenceMatrix) Observe(cues []Cue) {
	if len(cues) < 2 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < len(cues); i++ {
		for j := i + 1; j < len(cues); j++ {
			k := makePairKey(cues[i], cues[j])
			m.counts[k]++
		}
	}
}

// Count returns the observed co-occurrence count for the pair (x, y).
func (m *CoOccurrenceMatrix) Count(x, y Cue) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[makePairKey(x, y)]
}

// coPartner is one candidate's (other-cue, count) entry.
type coPartner struct {
	Cue   Cue
	Count uint32
}

// PartnersOf returns every cue observed co-occurring with c, sorted by
// descending count (for top-1 driver expansion and pattern completion).
func (m *CoOccurrenceMatrix) PartnersOf(c Cue) []coPartner {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []coPartner
	for k, cnt := range m.counts {
		switch {
		case k.a == c:
			out = append(out, coPartner{Cue: k.b, Count: cnt})
		case k.b == c:
			out = append(out, coPartner{Cue: k.a, Count: cnt})
		}
	}
	sortPartnersDesc(out)
	return out
}

// sortPartnersDesc orders by count descending, breaking ties by cue
// ascending so identical inputs always produce the same order — the
// source map's iteration order is randomized by Go, and a tie broken by
// map order would make pattern completion nondeterministic.
func sortPartnersDesc(partners []coPartner) {
	for i := 1; i < len(partners); i++ {
		for j := i; j > 0 && less(partners[j], partners[j-1]); j-- {
			partners[j], partners[j-1] = partners[j-1], partners[j]
		}
	}
}

func less(a, b coPartner) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Cue < b.Cue
}

// Triples returns every stored (cueA, cueB, count) triple, used by snapshotting.
func (m *CoOccurrenceMatrix) Triples() []CoTriple {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CoTriple, 0, len(m.counts))
	for k, cnt := range m.counts {
		out = append(out, CoTriple{A: k.a, B: k.b, Count: cnt})
	}
	return out
}

// LoadTriples replaces the matrix contents, used by snapshot restore.
func (m *CoOccurrenceMatrix) LoadTriples(triples []CoTriple) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[pairKey]uint32, len(triples))
	for _, t := range triples {
		m.counts[makePairKey(t.A, t.B)] = t.Count
	}
}

// CoTriple is the wire/snapshot representation of one co-occurrence entry.
type CoTriple struct {
	A, B  Cue
	Count uint32
}
