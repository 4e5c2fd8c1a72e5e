// Package store persists the run ledger: every beemig invocation, the stages
// it ran and the chain integrity failures it found.
package store

import (
	"context"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Command string          `json:"command,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, command string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	CreateStage(ctx context.Context, runID, name string) (*model.Stage, error)
	CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error
	ListStages(ctx context.Context, runID string) ([]model.Stage, error)

	// Chain failures
	RecordChainFailures(ctx context.Context, failures []model.ChainFailure) error
	ListChainFailures(ctx context.Context, runID string) ([]model.ChainFailure, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
