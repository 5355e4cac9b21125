// Package lexicon resolves free-form natural-language text to canonical
// cues. It is a second, recursive instance of the core engine: its
// records are canonical cues, and its own cues are the tokens and
// adjacent-token bigrams of the surface text that names them. No
// lexicon-specific recall algorithm exists — cuemap.Engine is reused
// unmodified.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/cuemap/cuemap/pkg/cuemap"
)

var (
	tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

	// stopwords carried verbatim from the lexicon source this package
	// is ported from.
	stopwords = map[string]struct{}{
		"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "in": {},
		"a": {}, "an": {}, "and": {}, "or": {}, "for": {}, "to": {},
		"of": {}, "it": {}, "this": {}, "that": {},
	}
)

// normalizeText lowercases, collapses every non-alphanumeric run to a
// single space, and trims.
func normalizeText(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	prevSpace := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenizeToCues extracts stopword-filtered tokens ("tok:<word>") and
// adjacent-token bigrams ("phr:<word1>_<word2>") from free text.
func tokenizeToCues(text string) []string {
	normalized := normalizeText(text)
	var cues []string
	var tokens []string

	for _, tok := range tokenPattern.FindAllString(normalized, -1) {
		if _, stop := stopwords[tok]; stop || len(tok) <= 1 {
			continue
		}
		tokens = append(tokens, tok)
		cues = append(cues, "tok:"+tok)
	}

	for i := 0; i+1 < len(tokens); i++ {
		cues = append(cues, "phr:"+tokens[i]+"_"+tokens[i+1])
	}

	return cues
}

// Resolver maps surface text to canonical cues via a dedicated
// cuemap.Engine whose records are the canonical cues themselves.
type Resolver struct {
	engine *cuemap.Engine
}

// New wraps an already-constructed lexicon engine. Callers typically
// build it with cuemap.New(cuemap.DefaultEngineConfig(), logger) and
// share its lifecycle (Start/Stop/snapshot path) with the tenant it
// belongs to.
func New(engine *cuemap.Engine) *Resolver {
	return &Resolver{engine: engine}
}

// Engine returns the resolver's backing engine, used by callers that
// need to manage its lifecycle (Start/Stop) or snapshot it directly.
func (r *Resolver) Engine() *cuemap.Engine {
	return r.engine
}

// Learn teaches the lexicon that canonicalCue can be reached via the
// given surface text, e.g. Learn("payment service", "service:payment").
func (r *Resolver) Learn(text, canonicalCue string) (*cuemap.MemoryRecord, error) {
	cues := tokenizeToCues(text)
	if len(cues) == 0 {
		return nil, cuemap.ErrInvalidQuery("lexicon text yields no tokens")
	}
	rec, _, err := r.engine.Memorize(canonicalCue, cues, map[string]string{"surface_text": text})
	return rec, err
}

// Resolution is one candidate canonical cue for a piece of free text.
type Resolution struct {
	CanonicalCue string
	Score        float64
	Confidence   float64
}

// Resolve tokenizes text the same way Learn does and recalls the
// canonical cues whose learned tokens best match it.
func (r *Resolver) Resolve(text string, limit int) ([]Resolution, error) {
	cues := tokenizeToCues(text)
	if len(cues) == 0 {
		return nil, nil
	}
	weighted := make([]cuemap.WeightedCue, len(cues))
	for i, c := range cues {
		w := 1.0
		if strings.HasPrefix(c, "phr:") {
			w = 1.5
		}
		weighted[i] = cuemap.WeightedCue{Cue: cuemap.Cue(c), Weight: w}
	}

	hits, err := r.engine.Recall(cuemap.RecallQuery{
		Cues:          weighted,
		Limit:         limit,
		AutoReinforce: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Resolution, len(hits))
	for i, h := range hits {
		out[i] = Resolution{
			CanonicalCue: h.Record.Content,
			Score:        h.Score,
			Confidence:   h.MatchIntegrity,
		}
	}
	return out, nil
}
