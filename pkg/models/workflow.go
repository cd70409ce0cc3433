// Package models defines the core domain models for the visual workflow
// designer: node graphs, deployment pipelines, and their execution state.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never executed
	WorkflowStatusActive   WorkflowStatus = "active"   // Executed at least once
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Excluded from scheduled runs
	WorkflowStatusArchived WorkflowStatus = "archived" // Read-only, kept for history
)

// Workflow is the aggregate root for a designed node graph. Nodes and
// connections are exclusively owned; they are never shared across workflows.
type Workflow struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"        validate:"required,min=3"`
	Description    string         `json:"description"`
	Status         WorkflowStatus `json:"status"      validate:"required"`
	Nodes          []*Node        `json:"nodes"`
	Connections    []*Connection  `json:"connections"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ExecutionCount int            `json:"execution_count"`
	LastExecuted   *time.Time     `json:"last_executed,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *Node {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}
