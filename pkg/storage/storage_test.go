package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestActiveProjects(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	names, err := store.ActiveProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.SetActiveProjects(ctx, []string{"nextcloud", "calibre", "nextcloud"}))
	names, err = store.ActiveProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"calibre", "nextcloud"}, names)

	require.NoError(t, store.SetActiveProjects(ctx, nil))
	names, err = store.ActiveProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStatePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, store.SetActiveProjects(ctx, []string{"jellyfin"}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, dir)
	require.NoError(t, err)
	defer store.Close()

	names, err := store.ActiveProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jellyfin"}, names)
}

func TestBatchUpdateSharesTransaction(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	err := store.BatchUpdate(ctx, func(ctx context.Context) error {
		require.NotNil(t, TxFromCtx(ctx))
		if err := store.SetActiveProjects(ctx, []string{"a"}); err != nil {
			return err
		}

		names, err := store.ActiveProjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, names)
		return nil
	})
	require.NoError(t, err)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	start := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	for i := 0; i < MaxRuns+5; i++ {
		err := store.RecordRun(ctx, TaskRun{
			Task:     "build",
			Started:  start.Add(time.Duration(i) * time.Minute),
			Duration: time.Second,
			ExitCode: i % 2,
		})
		require.NoError(t, err)
	}

	runs, err := store.LastRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, start.Add(time.Duration(MaxRuns+4)*time.Minute), runs[0].Started)
	assert.Equal(t, start.Add(time.Duration(MaxRuns+2)*time.Minute), runs[2].Started)

	all, err := store.LastRuns(ctx, MaxRuns*2)
	require.NoError(t, err)
	assert.Len(t, all, MaxRuns)
	assert.Equal(t, start.Add(5*time.Minute), all[len(all)-1].Started)
}

func TestReplaceActiveProjects(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.SetActiveProjects(ctx, []string{"calibre", "jellyfin"}))

	changes, err := store.ReplaceActiveProjects(ctx, []string{"nextcloud", "jellyfin", "nextcloud"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nextcloud"}, changes.Added)
	assert.Equal(t, []string{"calibre"}, changes.Removed)

	names, err := store.ActiveProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jellyfin", "nextcloud"}, names)

	changes, err = store.ReplaceActiveProjects(ctx, names)
	require.NoError(t, err)
	assert.True(t, changes.Empty())
}

func TestRecordRunsIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	start := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRuns(ctx, []TaskRun{
		{Task: "clean", Started: start, ExitCode: 0},
		{Task: "build", Started: start.Add(time.Second), ExitCode: 2},
	}))

	runs, err := store.LastRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "build", runs[0].Task)
	assert.Equal(t, 2, runs[0].ExitCode)
	assert.Equal(t, "clean", runs[1].Task)

	// a run that can't be encoded rolls back the whole batch
	err = store.RecordRuns(ctx, []TaskRun{
		{Task: "lint", Started: start.Add(time.Minute)},
		{Task: "broken", Started: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.Error(t, err)

	runs, err = store.LastRuns(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
