package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func sampleRun() *Run {
	return &Run{
		Method:            "lm",
		FeatureMode:       "loam",
		Params:            [7]float64{0.1, -0.05, 0.02, 0.9933, 1.5, -0.25, 0.125},
		InitialCost:       12.5,
		FinalCost:         1e-14,
		Iterations:        7,
		Termination:       "gradient_tolerance",
		UsedResiduals:     120,
		RejectedResiduals: 2,
		Correspondences:   122,
		InputPath:         "scan_0042.json",
		ConfigJSON:        json.RawMessage(`{"loss":"huber"}`),
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	t.Parallel()

	store, path := openTestStore(t)
	version, dirty, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Reopening an up to date database is a no-op.
	again, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestRecordAndGetRun(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.RecordRun(ctx, run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := store.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.5, got.Transform().Trans.Vector().X, 1e-15)
}

func TestRecordRunKeepsGivenID(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	ctx := context.Background()

	run := &Run{RunID: "fixed", Method: "gn", FeatureMode: "icp", CreatedAt: 42}
	require.NoError(t, store.RecordRun(ctx, run))
	got, err := store.GetRun(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CreatedAt)
	assert.Empty(t, got.InputPath)
	assert.Nil(t, got.ConfigJSON)

	assert.Error(t, store.RecordRun(ctx, &Run{RunID: "fixed"}), "duplicate IDs are rejected")
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	store, _ := openTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		run := sampleRun()
		run.RunID = fmt.Sprintf("run-%d", i)
		run.CreatedAt = int64(i * 1000)
		require.NoError(t, store.RecordRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.RunID
	}
	assert.Equal(t, []string{"run-5", "run-4", "run-3"}, ids)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRetryOnBusy(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("no such table")
	err = retryOnBusy(context.Background(), func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryOnBusy(ctx, func() error { return errors.New("SQLITE_BUSY") })
	assert.ErrorIs(t, err, context.Canceled)
}
