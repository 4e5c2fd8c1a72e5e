//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/store"
)

func storeFilterAll() store.RunFilter { return store.RunFilter{} }

func ptrTime(t time.Time) *time.Time { return &t }

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Command:    "run",
			Status:     model.RunStatusComplete,
			StartedAt:  now,
			FinishedAt: ptrTime(now.Add(2 * time.Minute)),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Command:   "distances",
			Status:    model.RunStatusRunning,
			StartedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "COMMAND")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "distances")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestFormatRunsList_TruncatesError(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{{
		ID:         "1",
		Command:    "costs",
		Status:     model.RunStatusFailed,
		Error:      "pipeline: stage costs: calibration needs at least three survey rows",
		StartedAt:  now,
		FinishedAt: ptrTime(now.Add(time.Second)),
	}}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "pipeline: stage costs: calibration ne...")
}

func TestFormatStages(t *testing.T) {
	run := &model.Run{
		ID: "r1",
		Stages: []model.Stage{
			{Name: "chains", Status: model.StageStatusComplete, Result: &model.StageResult{Rows: 42, Duration: 1500}},
			{Name: "distances", Status: model.StageStatusSkipped, Result: &model.StageResult{}},
			{Name: "costs", Status: model.StageStatusFailed, Result: &model.StageResult{Error: "boom\nstack"}},
			{Name: "stats", Status: model.StageStatusRunning},
		},
	}

	var buf bytes.Buffer
	formatStages(&buf, run)

	output := buf.String()
	assert.Contains(t, output, "STAGE")
	assert.Contains(t, output, "chains")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "1.5s")
	assert.Contains(t, output, "skipped")
	assert.Contains(t, output, "boom")
	assert.NotContains(t, output, "stack")
	assert.Contains(t, output, "running")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "1", Command: "run", Status: model.RunStatusComplete, StartedAt: now, FinishedAt: ptrTime(now.Add(10 * time.Second))},
		{ID: "2", Command: "run", Status: model.RunStatusComplete, StartedAt: now, FinishedAt: ptrTime(now.Add(20 * time.Second))},
		{ID: "3", Command: "chains", Status: model.RunStatusFailed, StartedAt: now, FinishedAt: ptrTime(now.Add(time.Second))},
		{ID: "4", Command: "distances", Status: model.RunStatusRunning, StartedAt: now},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 2, s.ByCommand["run"])
	assert.InDelta(t, 15.0, s.AvgDurSecs, 1e-9)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Avg duration:")
	assert.Contains(t, output, "15.0s")
	assert.Contains(t, output, "chains:")
}

func TestRunsStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
