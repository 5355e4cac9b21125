package cuemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasResolver_ExpandIsOneHopOnly(t *testing.T) {
	r := NewAliasResolver()
	r.Propose("a", "b", 0.9)
	r.Propose("b", "c", 0.9)

	expanded := r.Expand("a")
	assert.Len(t, expanded, 1)
	assert.Equal(t, Cue("b"), expanded[0].Cue)
	// "c" must not appear: aliases never chain.
	for _, wc := range expanded {
		assert.NotEqual(t, Cue("c"), wc.Cue)
	}
}

func TestAliasResolver_DedupesKeepingMaxWeight(t *testing.T) {
	r := NewAliasResolver()
	r.Propose("a", "b", 0.3)
	r.Propose("a", "b", 0.9)

	expanded := r.Expand("a")
	assert.Len(t, expanded, 1)
	assert.Equal(t, 0.9, expanded[0].Weight)
}

func TestAliasResolver_MergeIsBidirectional(t *testing.T) {
	r := NewAliasResolver()
	r.Merge("lang:go", "lang:golang")

	assert.Len(t, r.Expand("lang:go"), 1)
	assert.Len(t, r.Expand("lang:golang"), 1)
}
