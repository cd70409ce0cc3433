package models

import "time"

// DeploymentStatus represents the aggregate state of a deployment run.
type DeploymentStatus string

const (
	DeploymentStatusPending    DeploymentStatus = "pending"
	DeploymentStatusRunning    DeploymentStatus = "running"
	DeploymentStatusCompleted  DeploymentStatus = "completed"
	DeploymentStatusFailed     DeploymentStatus = "failed"
	DeploymentStatusRolledBack DeploymentStatus = "rolled-back"
)

// StageStatus defines the states of a single pipeline stage.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusRunning   StageStatus = "running"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// PipelineStage is one step of an ordered deployment pipeline. Script holds
// the fixed log lines the engine replays during a simulated run; Logs is the
// emitted, append-only output of the current run.
type PipelineStage struct {
	ID        string      `json:"id"   validate:"required"`
	Name      string      `json:"name" validate:"required"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Progress  int         `json:"progress"`
	Script    []string    `json:"script,omitempty"`
	Logs      []string    `json:"logs,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Duration is derived from the recorded start and end times. It reports zero
// until the stage reaches a terminal status.
func (s *PipelineStage) Duration() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}

	return s.EndTime.Sub(*s.StartTime)
}

// Terminal reports whether the stage can no longer change state this run.
func (s *PipelineStage) Terminal() bool {
	switch s.Status {
	case StageStatusCompleted, StageStatusFailed, StageStatusSkipped:
		return true
	case StageStatusPending, StageStatusRunning:
		return false
	}

	return false
}

// Deployment is the aggregate root for an ordered pipeline-stage list.
// Stage order is fixed at creation and executed strictly front-to-back.
type Deployment struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"        validate:"required,min=3"`
	Environment     string           `json:"environment"`
	Version         string           `json:"version"`
	RollbackVersion string           `json:"rollback_version,omitempty"`
	Status          DeploymentStatus `json:"status"      validate:"required"`
	Stages          []*PipelineStage `json:"stages"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Terminal reports whether the deployment run has finished.
func (d *Deployment) Terminal() bool {
	switch d.Status {
	case DeploymentStatusCompleted, DeploymentStatusFailed, DeploymentStatusRolledBack:
		return true
	case DeploymentStatusPending, DeploymentStatusRunning:
		return false
	}

	return false
}
