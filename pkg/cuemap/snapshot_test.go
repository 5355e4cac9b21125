package cuemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripPreservesRecordsAndIndexes(t *testing.T) {
	e := newTestEngine()
	const n = 1000
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		rec, _, err := e.Memorize("content", []string{"topic:go", "topic:test"}, nil)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	for i := 0; i < 200; i++ {
		require.NoError(t, e.Reinforce(ids[i%len(ids)], nil))
	}
	e.MergeAliases("lang:go", "lang:golang")

	dir := t.TempDir()
	path := filepath.Join(dir, "tenant.bin")
	require.NoError(t, e.Save(path))

	restored := newTestEngine()
	require.NoError(t, restored.Load(path))

	require.Equal(t, e.store.Len(), restored.store.Len())
	require.Equal(t, e.cueIndex.Len("topic:go"), restored.cueIndex.Len("topic:go"))

	orig, err := e.Get(ids[0])
	require.NoError(t, err)
	got, err := restored.Get(ids[0])
	require.NoError(t, err)
	require.Equal(t, orig.Content, got.Content)

	aliases := restored.ExpandAlias("lang:go")
	require.Len(t, aliases, 1)
	require.Equal(t, Cue("lang:golang"), aliases[0].Cue)
}

func TestSnapshot_CorruptFileQuarantinedAndEngineStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenant.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	e := newTestEngine()
	require.NoError(t, e.Load(path))
	require.Equal(t, 0, e.store.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	foundQuarantine := false
	for _, ent := range entries {
		if ent.Name() != "tenant.bin" {
			foundQuarantine = true
		}
	}
	require.True(t, foundQuarantine, "expected corrupt snapshot to be quarantined under a new name")
}

func TestSnapshot_MissingFileIsNotAnError(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Load(filepath.Join(t.TempDir(), "absent.bin")))
}
