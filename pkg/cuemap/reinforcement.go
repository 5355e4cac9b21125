package cuemap

import (
	"math"
	"time"
)

// normalizeAndValidateExtraCues runs cues attached after a record's
// initial creation through the same normalize/taxonomy pipeline
// Memorize applies, so reinforcement-time and attach-time enrichment
// can't bypass the taxonomy a record was created under.
func (e *Engine) normalizeAndValidateExtraCues(cues []Cue) []Cue {
	if len(cues) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(cues))
	for _, c := range cues {
		n, _ := NormalizeCue(string(c), e.cfg.NormalizationConfig)
		normalized = append(normalized, string(n))
	}
	accepted := normalized
	if e.cfg.Taxonomy != nil {
		accepted = ValidateCues(normalized, e.cfg.Taxonomy).Accepted
	}
	out := make([]Cue, len(accepted))
	for i, c := range accepted {
		out[i] = Cue(c)
	}
	return out
}

// Reinforce promotes a record: moves it to the front of every cue list
// it is currently posted under (and any extraCues being attached now),
// increments its reinforcement counter, refreshes LastAccess, and
// recomputes salience. The record's own fields change atomically under
// its shard lock; the cue-list promotion and the co-occurrence update
// run afterwards, outside that lock. Reinforce takes no context and
// cannot be interrupted partway once it has reached this point.
func (e *Engine) Reinforce(id string, extraCues []Cue) error {
	rec := e.store.Get(id)
	if rec == nil {
		return ErrNotFound("record " + id + " not found")
	}

	acceptedExtra := e.normalizeAndValidateExtraCues(extraCues)

	now := time.Now()
	var cueLens []int
	var allCues []Cue

	ok := e.store.Mutate(id, func(r *MemoryRecord) {
		for _, c := range acceptedExtra {
			if _, exists := r.Cues[c]; !exists {
				r.Cues[c] = struct{}{}
			}
		}
		if r.Reinforcement < math.MaxUint32 {
			r.Reinforcement++
		}
		r.LastAccess = now
		allCues = r.cueSlice()
		for _, c := range allCues {
			cueLens = append(cueLens, e.cueIndex.Len(c))
		}
		r.Salience = computeSalience(len(allCues), cueLens, r.Reinforcement)
	})
	if !ok {
		return ErrNotFound("record " + id + " not found")
	}

	for _, c := range allCues {
		e.cueIndex.Reinforce(c, id)
	}
	if len(allCues) > 1 {
		e.coOccur.Observe(allCues)
	}
	return nil
}

// AttachCue adds a cue to an existing record without incrementing its
// reinforcement counter (distinct from Reinforce, which both attaches
// and promotes). Used by background normalize/taxonomy jobs that
// enrich a record's cue set asynchronously.
func (e *Engine) AttachCue(id string, cue Cue) error {
	rec := e.store.Get(id)
	if rec == nil {
		return ErrNotFound("record " + id + " not found")
	}

	accepted := e.normalizeAndValidateExtraCues([]Cue{cue})
	if len(accepted) == 0 {
		return ErrInvalidCue("cue rejected by normalization or taxonomy: " + string(cue))
	}
	cue = accepted[0]

	var cueLens []int
	var allCues []Cue
	ok := e.store.Mutate(id, func(r *MemoryRecord) {
		r.Cues[cue] = struct{}{}
		allCues = r.cueSlice()
		for _, c := range allCues {
			cueLens = append(cueLens, e.cueIndex.Len(c))
		}
		r.Salience = computeSalience(len(allCues), cueLens, r.Reinforcement)
	})
	if !ok {
		return ErrNotFound("record " + id + " not found")
	}
	e.cueIndex.Attach(cue, id)
	if len(allCues) > 1 {
		e.coOccur.Observe(allCues)
	}
	return nil
}
