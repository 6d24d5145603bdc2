// Package store persists run and stage audit records so consumers can verify
// a run completed before trusting its output files.
package store

import (
	"context"

	"github.com/sells-group/sales-etl/internal/model"
)

// Store defines the persistence interface for pipeline run auditing.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)

	// Stages
	CreateStage(ctx context.Context, runID string, name string) (*model.Stage, error)
	CompleteStage(ctx context.Context, stageID string, status model.StageStatus, rows int64, errMsg string) error
	ListStages(ctx context.Context, runID string) ([]model.Stage, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
