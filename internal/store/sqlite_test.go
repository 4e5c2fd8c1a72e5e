package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_InMemory(t *testing.T) {
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, "chains")
	require.NoError(t, err)
	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "chains", got.Command)
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "run")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, st.FinishRun(ctx, run.ID, nil))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.GreaterOrEqual(t, got.Duration().Nanoseconds(), int64(0))
}

func TestSQLite_FinishRun_Failed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "distances")
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, run.ID, errors.New("graphhopper unreachable")))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "graphhopper unreachable", got.Error)
}

func TestSQLite_FinishRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.FinishRun(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found: missing")
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_ListRuns_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "chains")
	require.NoError(t, err)
	b, err := st.CreateRun(ctx, "costs")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "chains")
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, a.ID, nil))
	require.NoError(t, st.FinishRun(ctx, b.ID, errors.New("boom")))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	chains, err := st.ListRuns(ctx, RunFilter{Command: "chains"})
	require.NoError(t, err)
	assert.Len(t, chains, 2)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, b.ID, failed[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	offset, err := st.ListRuns(ctx, RunFilter{Limit: 10, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, offset, 1)
}

func TestSQLite_Stages(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "run")
	require.NoError(t, err)

	chains, err := st.CreateStage(ctx, run.ID, "chains")
	require.NoError(t, err)
	assert.Equal(t, model.StageStatusRunning, chains.Status)
	require.NoError(t, st.CompleteStage(ctx, chains.ID, &model.StageResult{
		Status:   model.StageStatusComplete,
		Rows:     42,
		Duration: 17,
		Metadata: map[string]any{"threshold_km": 5.0},
	}))

	dist, err := st.CreateStage(ctx, run.ID, "distances")
	require.NoError(t, err)
	require.NoError(t, st.CompleteStage(ctx, dist.ID, &model.StageResult{
		Status: model.StageStatusSkipped,
	}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "chains", got.Stages[0].Name)
	assert.Equal(t, model.StageStatusComplete, got.Stages[0].Status)
	require.NotNil(t, got.Stages[0].Result)
	assert.Equal(t, 42, got.Stages[0].Result.Rows)
	assert.Equal(t, 5.0, got.Stages[0].Result.Metadata["threshold_km"])
	assert.Equal(t, "distances", got.Stages[1].Name)
	assert.Equal(t, model.StageStatusSkipped, got.Stages[1].Status)
}

func TestSQLite_CompleteStage_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CompleteStage(context.Background(), "missing", &model.StageResult{Status: model.StageStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage not found")
}

func TestSQLite_ChainFailures(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "chains")
	require.NoError(t, err)

	require.NoError(t, st.RecordChainFailures(ctx, nil))
	require.NoError(t, st.RecordChainFailures(ctx, []model.ChainFailure{
		{RunID: run.ID, ThresholdKm: 5, Year: 2019, MovementIDs: []string{"m3"}, Message: "walk ends on a temporary apiary"},
		{RunID: run.ID, ThresholdKm: 0, Year: 2018, MovementIDs: []string{"m1", "m2"}, Message: "no home apiary"},
	}))

	got, err := st.ListChainFailures(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0].ThresholdKm)
	assert.Equal(t, []string{"m1", "m2"}, got[0].MovementIDs)
	assert.Equal(t, 2019, got[1].Year)
	assert.Equal(t, "walk ends on a temporary apiary", got[1].Message)

	none, err := st.ListChainFailures(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
