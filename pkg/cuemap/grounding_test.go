package cuemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecallGrounded_SelectsWithinTokenBudgetAndTracksExclusions(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 5; i++ {
		_, _, err := e.Memorize("a reasonably long piece of memory content here", []string{"topic:go"}, nil)
		require.NoError(t, err)
	}

	proof, err := e.RecallGrounded("trace-1", "go", RecallQuery{
		Cues:  []WeightedCue{{Cue: "topic:go", Weight: 1.0}},
		Limit: 10,
	}, 20)
	require.NoError(t, err)
	require.NotEmpty(t, proof.Selected)
	require.Contains(t, proof.ContextBlock, "[VERIFIED CONTEXT]")

	var totalTokens uint32
	for _, s := range proof.Selected {
		totalTokens += s.EstimatedTokens
	}
	require.LessOrEqual(t, totalTokens, uint32(20))
}

func TestRecallGrounded_EmptySelectionProducesPlaceholderBlock(t *testing.T) {
	e := newTestEngine()
	_, _, err := e.Memorize("content", []string{"topic:go"}, nil)
	require.NoError(t, err)

	proof, err := e.RecallGrounded("trace-2", "go", RecallQuery{
		Cues:  []WeightedCue{{Cue: "topic:go", Weight: 1.0}},
		Limit: 10,
	}, 0)
	require.NoError(t, err)
	require.Empty(t, proof.Selected)
	require.Contains(t, proof.ContextBlock, "No verified memories found")
}
