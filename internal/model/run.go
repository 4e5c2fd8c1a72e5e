package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of a beemig command.
type Run struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stages     []Stage    `json:"stages,omitempty"`
}

// Duration is the run's wall time, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StageStatus represents the outcome of a pipeline stage.
type StageStatus string

const (
	StageStatusRunning  StageStatus = "running"
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// Stage is a pipeline stage within a run.
type Stage struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    StageStatus  `json:"status"`
	StartedAt time.Time    `json:"started_at"`
	Result    *StageResult `json:"result,omitempty"`
}

// StageResult holds what a stage produced.
type StageResult struct {
	Status   StageStatus    `json:"status"`
	Rows     int            `json:"rows"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChainFailure is a chain integrity failure recorded for a threshold.
type ChainFailure struct {
	RunID       string   `json:"run_id"`
	ThresholdKm float64  `json:"threshold_km"`
	Year        int      `json:"year"`
	MovementIDs []string `json:"movement_ids"`
	Message     string   `json:"message"`
}
