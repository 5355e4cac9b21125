package tenant

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(Config{
		DataDir:          t.TempDir(),
		SnapshotInterval: time.Hour,
		Engine:           cuemap.DefaultEngineConfig(),
	}, nil)
}

func TestRouter_GetCreatesEngineLazily(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	e, err := r.Get(ctx, "tenant-a")
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, 1, r.Count())

	again, err := r.Get(ctx, "tenant-a")
	require.NoError(t, err)
	require.Same(t, e, again, "second Get must return the same engine instance")
}

func TestRouter_RejectsEmptyTenantID(t *testing.T) {
	r := newTestRouter(t)
	_, err := r.Get(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, cuemap.KindTenantMissing, cuemap.KindOf(err))
}

func TestRouter_EnforcesMaxTenants(t *testing.T) {
	r := NewRouter(Config{
		DataDir:    t.TempDir(),
		MaxTenants: 1,
		Engine:     cuemap.DefaultEngineConfig(),
	}, nil)
	ctx := context.Background()

	_, err := r.Get(ctx, "tenant-a")
	require.NoError(t, err)

	_, err = r.Get(ctx, "tenant-b")
	require.Error(t, err)
	require.Equal(t, cuemap.KindTenantMissing, cuemap.KindOf(err))
}

func TestRouter_SaveAllPersistsSnapshots(t *testing.T) {
	dataDir := t.TempDir()
	r := NewRouter(Config{
		DataDir: dataDir,
		Engine:  cuemap.DefaultEngineConfig(),
	}, nil)
	ctx := context.Background()

	e, err := r.Get(ctx, "tenant-a")
	require.NoError(t, err)
	_, _, err = e.Memorize("hello", []string{"topic:go"}, nil)
	require.NoError(t, err)

	r.SaveAll()

	path := cuemap.SnapshotPath(dataDir, "tenant-a")
	require.FileExists(t, filepath.Clean(path))

	reloaded := cuemap.New(cuemap.DefaultEngineConfig(), nil)
	require.NoError(t, reloaded.Load(path))
	require.Equal(t, 1, reloaded.Stats().RecordCount)
}

func TestRouter_StopSavesAndStopsEngines(t *testing.T) {
	dataDir := t.TempDir()
	r := NewRouter(Config{
		DataDir:          dataDir,
		SnapshotInterval: time.Hour,
		Engine:           cuemap.DefaultEngineConfig(),
	}, nil)
	ctx := context.Background()

	e, err := r.Get(ctx, "tenant-a")
	require.NoError(t, err)
	_, _, err = e.Memorize("hello", []string{"topic:go"}, nil)
	require.NoError(t, err)

	r.Start(ctx)
	r.Stop()

	require.FileExists(t, cuemap.SnapshotPath(dataDir, "tenant-a"))
	require.False(t, e.IsReady())
}
