package cuemap

import (
	"math"
	"sort"
	"time"
)

const (
	halfLifeSeconds           = 86400.0
	minCandidateFloor         = 64
	candidateMultiplier       = 8
	patternCompletionMinCount = 5
	patternCompletionMinProb  = 0.6
	patternCompletionMaxExtra = 3
	patternCompletionWeight   = 0.5
	patternCompletionMatchMin = 3
	driverEligibleWeight      = 0.5
)

// RecallQuery describes a recall request.
type RecallQuery struct {
	Cues                        []WeightedCue
	Limit                       int
	DisableSystemsConsolidation bool
	DisablePatternCompletion    bool
	DisableSalienceBias         bool
	ExpandAliases               bool
	AutoReinforce               bool
	Explain                     bool
}

// expandQueryAliases adds each query cue's one-hop aliases as extra
// weighted cues (contribution = query weight * alias weight), leaving
// the original cues untouched. A cue already present in the query is
// not duplicated.
func (e *Engine) expandQueryAliases(cues []WeightedCue) []WeightedCue {
	present := make(map[Cue]struct{}, len(cues))
	for _, wc := range cues {
		present[wc.Cue] = struct{}{}
	}
	out := append([]WeightedCue(nil), cues...)
	for _, wc := range cues {
		for _, alias := range e.aliases.Expand(wc.Cue) {
			if _, ok := present[alias.Cue]; ok {
				continue
			}
			present[alias.Cue] = struct{}{}
			out = append(out, WeightedCue{Cue: alias.Cue, Weight: wc.Weight * alias.Weight})
		}
	}
	return out
}

// RecallHit is one ranked recall result.
type RecallHit struct {
	Record         *MemoryRecord
	Score          float64
	MatchedWeight  float64
	MatchedCues    []Cue
	RecencyFactor  float64
	Reinforcement  uint32
	Salience       float64
	MatchIntegrity float64
	Explain        *HitExplain
}

// HitExplain is the per-candidate scoring breakdown for explain mode.
type HitExplain struct {
	QueryWeightSum     float64
	MatchedWeightSum   float64
	ReinforcementBoost float64
	RecencyFactor      float64
	SalienceMultiplier float64
	Driver             Cue
	PatternCompleted   []Cue
}

// Recall runs the selective-set-intersection recall algorithm: pick a
// driver cue (the smallest posting list among cues weighted >= 0.5),
// probe its list against the other query cues, optionally expand via
// co-occurrence-driven pattern completion, score, and rank. The
// scoring/fusion shape — accumulate into a map, then a single sort by
// score with a deterministic tiebreak — mirrors a classic rank-fusion
// retriever.
func (e *Engine) Recall(q RecallQuery) ([]RecallHit, error) {
	if len(q.Cues) == 0 {
		return nil, ErrInvalidQuery("recall query must include at least one cue")
	}
	if q.ExpandAliases {
		q.Cues = e.expandQueryAliases(q.Cues)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	maxCandidates := limit * candidateMultiplier
	if maxCandidates < minCandidateFloor {
		maxCandidates = minCandidateFloor
	}

	queryCues := make([]Cue, len(q.Cues))
	for i, wc := range q.Cues {
		queryCues[i] = wc.Cue
	}

	type accum struct {
		matchedWeight float64
		matchedCues   []Cue
	}
	candidates := make(map[string]*accum)
	matchCount := make(map[Cue]int)

	var driver Cue
	var driverIdx int

	// Driver selection and the initial probe run with every query cue's
	// shard held for the duration, in fixed ascending order, so this
	// phase observes a single consistent snapshot of the index even
	// under concurrent Attach/Reinforce/Detach calls on the same cues.
	e.cueIndex.WithCues(queryCues, func() {
		driver, driverIdx = selectDriver(q.Cues, e.cueIndex.lenLocked)
		if driver == "" {
			return
		}

		probe := func(id string) {
			a, ok := candidates[id]
			if !ok {
				a = &accum{}
				candidates[id] = a
			}
			for _, wc := range q.Cues {
				if wc.Cue == driver {
					continue
				}
				if e.cueIndex.containsLocked(wc.Cue, id) {
					alreadyMatched := false
					for _, mc := range a.matchedCues {
						if mc == wc.Cue {
							alreadyMatched = true
							break
						}
					}
					if !alreadyMatched {
						a.matchedWeight += wc.Weight
						a.matchedCues = append(a.matchedCues, wc.Cue)
						matchCount[wc.Cue]++
					}
				}
			}
		}

		driverWeight := q.Cues[driverIdx].Weight
		driverIDs := e.cueIndex.idsLocked(driver)
		for _, id := range driverIDs {
			if len(candidates) >= maxCandidates {
				break
			}
			a := &accum{matchedWeight: driverWeight, matchedCues: []Cue{driver}}
			candidates[id] = a
			probe(id)
		}
	})

	if driver == "" {
		return nil, nil
	}

	var patternCompleted []Cue
	if !q.DisablePatternCompletion {
		var underMatched []Cue
		for _, wc := range q.Cues {
			if matchCount[wc.Cue] < patternCompletionMatchMin {
				underMatched = append(underMatched, wc.Cue)
			}
		}
		if len(underMatched) > 0 {
			extras := 0
			addedPartner := make(map[Cue]struct{})
			for _, uc := range underMatched {
				if extras >= patternCompletionMaxExtra {
					break
				}
				partners := e.coOccur.PartnersOf(uc)
				ucLen := e.cueIndex.Len(uc)
				for _, p := range partners {
					if extras >= patternCompletionMaxExtra {
						break
					}
					if _, ok := addedPartner[p.Cue]; ok {
						continue
					}
					if p.Count < patternCompletionMinCount {
						continue
					}
					condProb := 0.0
					if ucLen > 0 {
						condProb = float64(p.Count) / float64(ucLen)
					}
					if condProb < patternCompletionMinProb {
						continue
					}
					addedPartner[p.Cue] = struct{}{}
					patternCompleted = append(patternCompleted, p.Cue)
					for _, id := range e.cueIndex.IDs(p.Cue) {
						if len(candidates) >= maxCandidates {
							break
						}
						a, ok := candidates[id]
						if !ok {
							a = &accum{}
							candidates[id] = a
						}
						already := false
						for _, mc := range a.matchedCues {
							if mc == p.Cue {
								already = true
								break
							}
						}
						if !already {
							a.matchedWeight += patternCompletionWeight
							a.matchedCues = append(a.matchedCues, p.Cue)
						}
					}
					extras++
				}
			}
		}
	}

	queryWeightSum := 0.0
	for _, wc := range q.Cues {
		queryWeightSum += wc.Weight
	}

	now := time.Now()
	hits := make([]RecallHit, 0, len(candidates))
	for id, a := range candidates {
		rec := e.store.Get(id)
		if rec == nil {
			continue
		}
		if q.DisableSystemsConsolidation && rec.Metadata["gist"] == "true" {
			continue
		}
		ageSeconds := now.Sub(rec.CreatedAt).Seconds()
		if ageSeconds < 0 {
			ageSeconds = 0
		}
		recencyFactor := 1.0 / (1.0 + ageSeconds/halfLifeSeconds)
		reinforcementBoost := 1.0 + math.Log2(1+float64(rec.Reinforcement))
		salience := rec.Salience
		if q.DisableSalienceBias {
			salience = 1.0
		}
		score := a.matchedWeight * reinforcementBoost * recencyFactor * salience

		integrity := 0.0
		if queryWeightSum > 0 {
			integrity = math.Min(1, a.matchedWeight/queryWeightSum) *
				(0.5 + 0.5*math.Min(1, float64(rec.Reinforcement)/10.0))
		}

		hit := RecallHit{
			Record:         rec,
			Score:          score,
			MatchedWeight:  a.matchedWeight,
			MatchedCues:    a.matchedCues,
			RecencyFactor:  recencyFactor,
			Reinforcement:  rec.Reinforcement,
			Salience:       salience,
			MatchIntegrity: integrity,
		}
		if q.Explain {
			hit.Explain = &HitExplain{
				QueryWeightSum:     queryWeightSum,
				MatchedWeightSum:   a.matchedWeight,
				ReinforcementBoost: reinforcementBoost,
				RecencyFactor:      recencyFactor,
				SalienceMultiplier: salience,
				Driver:             driver,
				PatternCompleted:   patternCompleted,
			}
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].Record.CreatedAt.Equal(hits[j].Record.CreatedAt) {
			return hits[i].Record.CreatedAt.After(hits[j].Record.CreatedAt)
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	if q.AutoReinforce {
		// Ordering was captured above, before any mutation — reinforcing
		// after ranking keeps recall's own ordering stable for this call.
		for _, h := range hits {
			e.Reinforce(h.Record.ID, nil)
		}
	}

	return hits, nil
}

// selectDriver picks the query cue with the smallest posting list among
// cues weighted >= 0.5; if none qualify, it falls back to the smallest
// posting list among all query cues. Cues with no postings at all are
// never eligible to drive the scan — an unindexed cue has no list to
// intersect against and would otherwise starve the candidate set.
// lenFn resolves a cue's posting-list length; callers pass the shard's
// already-locked accessor rather than the self-locking public one.
func selectDriver(cues []WeightedCue, lenFn func(Cue) int) (Cue, int) {
	bestIdx := -1
	bestLen := -1
	for i, wc := range cues {
		if wc.Weight < driverEligibleWeight {
			continue
		}
		l := lenFn(wc.Cue)
		if l == 0 {
			continue
		}
		if bestIdx == -1 || l < bestLen {
			bestIdx, bestLen = i, l
		}
	}
	if bestIdx == -1 {
		for i, wc := range cues {
			l := lenFn(wc.Cue)
			if l == 0 {
				continue
			}
			if bestIdx == -1 || l < bestLen {
				bestIdx, bestLen = i, l
			}
		}
	}
	if bestIdx == -1 {
		return "", -1
	}
	return cues[bestIdx].Cue, bestIdx
}
