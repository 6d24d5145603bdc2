package model

import "time"

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StageStatus tracks the lifecycle of a single stage within a run.
type StageStatus string

const (
	StageStatusRunning   StageStatus = "running"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// Run is the audit record for one pipeline execution. Consumers must check
// the run completed before trusting output files from that run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is the audit record for one stage of a run.
type Stage struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	Rows      int64       `json:"rows"`
	Error     string      `json:"error,omitempty"`
	StartedAt time.Time   `json:"started_at"`
}

// Manifest is the per-run summary written next to the output tables on
// success. Its presence (with status completed) is the completion marker.
type Manifest struct {
	RunID      string           `yaml:"run_id"`
	Status     RunStatus        `yaml:"status"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Outputs    map[string]int   `yaml:"outputs"`
	StageMS    map[string]int64 `yaml:"stage_duration_ms"`
}
