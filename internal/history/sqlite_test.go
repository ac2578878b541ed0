package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)

	require.NoError(t, store.RecordRunStart(ctx, RunSummary{
		ID: "run-1", Pipeline: "windows-release", Trigger: "manual",
		Status: "running", StartedAt: started,
	}))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "running", runs[0].Status)
	assert.True(t, runs[0].CompletedAt.IsZero())

	require.NoError(t, store.RecordRunEnd(ctx, "run-1", "failed", "step package exited 1", time.Now()))

	runs, err = store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
	assert.Equal(t, "step package exited 1", runs[0].Error)
	assert.False(t, runs[0].CompletedAt.IsZero())
}

func TestEventsByRun(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, "run-1", EventRunStarted, nil))
	require.NoError(t, store.AppendEvent(ctx, "run-1", EventStepFinished, []byte(`{"step":"package"}`)))
	require.NoError(t, store.AppendEvent(ctx, "run-2", EventRunStarted, nil))

	events, err := store.EventsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventRunStarted, events[0].Type)
	assert.Equal(t, EventStepFinished, events[1].Type)
	assert.JSONEq(t, `{"step":"package"}`, string(events[1].Payload))
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRunStart(ctx, RunSummary{
			ID: string(rune('a' + i)), Pipeline: "p", Trigger: "cron",
			Status: "completed", StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "e", runs[0].ID, "newest first")
}

func TestRunsSince(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRunStart(ctx, RunSummary{
			ID: string(rune('a' + i)), Pipeline: "p", Trigger: "cron",
			Status: "completed", StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.RunsSince(ctx, base.Add(3*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "e", runs[0].ID)
	assert.Equal(t, "d", runs[1].ID)
}

func TestNoopStore(t *testing.T) {
	var s NoopStore
	require.NoError(t, s.RecordRunStart(context.Background(), RunSummary{}))
	runs, err := s.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, runs)
}
