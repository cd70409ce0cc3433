// Package web provides the HTTP handlers and REST API endpoints for the
// workflow designer.
package web

import "github.com/flowcanvas/flowcanvas/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string                `json:"name,omitempty"   validate:"omitempty,min=3"`
	Description *string                `json:"description,omitempty"`
	Status      *models.WorkflowStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active paused archived"`
	Metadata    map[string]any         `json:"metadata,omitempty"`
	Nodes       []*models.Node         `json:"nodes,omitempty"`
	Connections []*models.Connection   `json:"connections,omitempty"`
}

// DeployAgentWorkflowRequest carries a full workflow definition to deploy.
// The workflow is persisted as active and a pipeline deployment is created
// and started for it.
type DeployAgentWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3"`
	Description string               `json:"description"`
	Nodes       []*models.Node       `json:"nodes"       validate:"required,min=1"`
	Connections []*models.Connection `json:"connections"`
	Environment string               `json:"environment"`
}

// CreateDeploymentRequest instantiates a deployment from a template.
type CreateDeploymentRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
}

// RollbackRequest carries the version a deployment rolls back to.
type RollbackRequest struct {
	Version string `json:"version" validate:"required"`
}

// TemplatesResponse lists both template families.
type TemplatesResponse struct {
	Workflows   []TemplateSummary `json:"workflows"`
	Deployments []TemplateSummary `json:"deployments"`
}

// TemplateSummary is the listing view of a template.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment,omitempty"`
	Nodes       int    `json:"nodes,omitempty"`
	Stages      int    `json:"stages,omitempty"`
}
