package cuemap

import (
	"fmt"
	"math"
	"strings"
)

// SelectedItem is one recall hit accepted into the grounded context
// block.
type SelectedItem struct {
	MemoryID          string
	Content           string
	Score             float64
	IntersectionCount int
	RecencyComponent  float64
	ReinforcementComp float64
	Source            string
	EstimatedTokens   uint32
	Why               string
}

// ExcludedItem explains why a ranked hit did not make the token budget.
type ExcludedItem struct {
	MemoryID string
	Score    float64
	Reason   string
}

// GroundingProof is the full audit trail returned by a grounded recall:
// what was selected into the context block, what was excluded and why,
// and the assembled block itself.
type GroundingProof struct {
	TraceID        string
	QueryText      string
	NormalizedCues []string
	ExpandedCues   []WeightedCue
	TokenBudget    uint32
	Selected       []SelectedItem
	ExcludedTop    []ExcludedItem
	ContextBlock   string
}

const maxExcludedTracked = 5

// EstimateTokens approximates token count as content length / 4.
func EstimateTokens(content string) uint32 {
	return uint32(math.Ceil(float64(len(content)) / 4.0))
}

// RecallGrounded runs Recall and then greedily selects ranked hits into
// a token-budgeted, citeable context block. This is the operation
// behind the /recall/grounded route.
func (e *Engine) RecallGrounded(traceID, queryText string, q RecallQuery, tokenBudget uint32) (*GroundingProof, error) {
	hits, err := e.Recall(q)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(q.Cues))
	for _, wc := range q.Cues {
		normalized = append(normalized, string(wc.Cue))
	}

	var selected []SelectedItem
	var excluded []ExcludedItem
	var currentTokens uint32

	for _, h := range hits {
		tokens := EstimateTokens(h.Record.Content)
		if currentTokens+tokens <= tokenBudget {
			source := h.Record.Metadata["source"]
			if source == "" {
				source = "unknown"
			}
			why := fmt.Sprintf("ranked #%d with score %.2f (%d matches)",
				len(selected)+1, h.Score, len(h.MatchedCues))
			selected = append(selected, SelectedItem{
				MemoryID:          h.Record.ID,
				Content:           h.Record.Content,
				Score:             h.Score,
				IntersectionCount: len(h.MatchedCues),
				RecencyComponent:  h.RecencyFactor,
				ReinforcementComp: math.Log2(1 + float64(h.Reinforcement)),
				Source:            source,
				EstimatedTokens:   tokens,
				Why:               why,
			})
			currentTokens += tokens
		} else if len(excluded) < maxExcludedTracked {
			remaining := uint32(0)
			if tokenBudget > currentTokens {
				remaining = tokenBudget - currentTokens
			}
			excluded = append(excluded, ExcludedItem{
				MemoryID: h.Record.ID,
				Score:    h.Score,
				Reason:   fmt.Sprintf("exceeds remaining token budget (needs %d, has %d)", tokens, remaining),
			})
		}
	}

	return &GroundingProof{
		TraceID:        traceID,
		QueryText:      queryText,
		NormalizedCues: normalized,
		ExpandedCues:   q.Cues,
		TokenBudget:    tokenBudget,
		Selected:       selected,
		ExcludedTop:    excluded,
		ContextBlock:   formatContextBlock(selected),
	}, nil
}

func formatContextBlock(selected []SelectedItem) string {
	if len(selected) == 0 {
		return "[VERIFIED CONTEXT]\nNo verified memories found for this query.\n[/VERIFIED CONTEXT]"
	}
	var b strings.Builder
	b.WriteString("[VERIFIED CONTEXT]\n")
	for i, item := range selected {
		fmt.Fprintf(&b, "(%d) %s (source=%s, score=%.2f, id=%s)\n",
			i+1, item.Content, item.Source, item.Score, item.MemoryID)
	}
	b.WriteString("[/VERIFIED CONTEXT]\n\nRules:\n- Use only VERIFIED CONTEXT.\n- If the answer is not contained there, respond: \"Unknown\".\n- Cite sources by memory_id in brackets.")
	return b.String()
}
