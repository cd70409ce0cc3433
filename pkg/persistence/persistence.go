// Package persistence provides the data storage abstraction layer for
// workflows and deployments.
package persistence

import (
	"context"

	"github.com/flowcanvas/flowcanvas/pkg/models"
)

// ListWorkflowsOptions controls filtering, sorting and pagination of
// workflow listings.
type ListWorkflowsOptions struct {
	Status    *models.WorkflowStatus
	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc
	Limit     int
	Offset    int
}

// WorkflowListResult is a page of workflows plus pagination metadata.
type WorkflowListResult struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

type Persistence interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	Deployments(ctx context.Context) ([]*models.Deployment, error)
	SaveDeployment(ctx context.Context, deployment *models.Deployment) error
	DeploymentByID(ctx context.Context, id string) (*models.Deployment, error)
	DeleteDeployment(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
