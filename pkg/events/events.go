// Package events defines the typed events an execution run publishes:
// stage transitions, log lines, and aggregate lifecycle changes.
package events

import (
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/models"
)

type EventType string

// Topic carries all run events on the event bus.
const Topic = "flowcanvas.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Deployment pipeline run events.
	DeploymentStartedEvent    EventType = "deployment.started"
	StageStartedEvent         EventType = "deployment.stage.started"
	StageLogAppendedEvent     EventType = "deployment.stage.log"
	StageCompletedEvent       EventType = "deployment.stage.completed"
	DeploymentCompletedEvent  EventType = "deployment.completed"
	DeploymentRolledBackEvent EventType = "deployment.rolled_back"

	// Workflow simulation run events.
	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	WorkflowLogEmittedEvent         EventType = "workflow.execution.log"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type DeploymentStarted struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	Version      string `json:"version"`
	StageCount   int    `json:"stage_count"`
}

func (e DeploymentStarted) GetType() EventType {
	return DeploymentStartedEvent
}

type StageStarted struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	StageID      string `json:"stage_id"`
	StageName    string `json:"stage_name"`
	StageIndex   int    `json:"stage_index"`
}

func (e StageStarted) GetType() EventType {
	return StageStartedEvent
}

type StageLogAppended struct {
	BaseEvent

	DeploymentID string `json:"deployment_id"`
	StageID      string `json:"stage_id"`
	Line         string `json:"line"`
	Progress     int    `json:"progress"`
}

func (e StageLogAppended) GetType() EventType {
	return StageLogAppendedEvent
}

type StageCompleted struct {
	BaseEvent

	DeploymentID string             `json:"deployment_id"`
	StageID      string             `json:"stage_id"`
	Status       models.StageStatus `json:"status"`
	DurationMs   int64              `json:"duration_ms"`
}

func (e StageCompleted) GetType() EventType {
	return StageCompletedEvent
}

type DeploymentCompleted struct {
	BaseEvent

	DeploymentID string                  `json:"deployment_id"`
	Status       models.DeploymentStatus `json:"status"`
	DurationMs   int64                   `json:"duration_ms"`
}

func (e DeploymentCompleted) GetType() EventType {
	return DeploymentCompletedEvent
}

type DeploymentRolledBack struct {
	BaseEvent

	DeploymentID    string `json:"deployment_id"`
	RollbackVersion string `json:"rollback_version"`
}

func (e DeploymentRolledBack) GetType() EventType {
	return DeploymentRolledBackEvent
}

type WorkflowExecutionStarted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
}

func (e WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowLogEmitted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	Line       string `json:"line"`
}

func (e WorkflowLogEmitted) GetType() EventType {
	return WorkflowLogEmittedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	WorkflowID     string `json:"workflow_id"`
	ExecutionCount int    `json:"execution_count"`
	DurationMs     int64  `json:"duration_ms"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}
