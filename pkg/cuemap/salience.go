package cuemap

import "math"

const (
	salienceMin = 0.5
	salienceMax = 2.0
)

// computeSalience derives the salience multiplier for a record from its
// cue count, the rarity of each of its cues (posting-list length, via
// cueLens), and its reinforcement count. Recomputed on create, cue
// attach, and reinforce — it is not time-decayed, since recency decay
// lives in the recall engine's recency_factor, not here.
//
// salience = clamp(0.5, 2.0, base * density * rarity * reinforcement_factor)
//   base = 1.0
//   density = 1 + 0.1 * min(cue_count, 10)
//   rarity = 1 + sum(1/log2(2+cue_list_length)) normalized to contribute at most 0.5
//   reinforcement_factor = 1 + log2(1+reinforcement)/4
func computeSalience(cueCount int, cueLens []int, reinforcement uint32) float64 {
	const base = 1.0

	density := 1.0 + 0.1*math.Min(float64(cueCount), 10)

	rarity := 1.0
	if len(cueLens) > 0 {
		var sum float64
		for _, l := range cueLens {
			sum += 1.0 / math.Log2(2+float64(l))
		}
		avg := sum / float64(len(cueLens))
		// normalize average per-cue rarity contribution into [0, 0.5]
		rarity = 1.0 + 0.5*avg
	}

	reinforcementFactor := 1.0 + math.Log2(1+float64(reinforcement))/4.0

	s := base * density * rarity * reinforcementFactor
	return clamp(s, salienceMin, salienceMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
