// Package redis provides redis-backed persistence for workflows and
// deployments. Each collection is a redis hash keyed by entity id, with
// aggregates stored as JSON documents.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
)

const (
	workflowsKey   = "flowcanvas:workflows"
	deploymentsKey = "flowcanvas:deployments"
)

// Persistence implements persistence.Persistence on top of redis.
type Persistence struct {
	client *redis.Client
}

// NewPersistence connects to redis using a redis:// URL.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

// NewPersistenceWithClient wraps an existing client, used by tests.
func NewPersistenceWithClient(client *redis.Client) *Persistence {
	return &Persistence{client: client}
}

// Close closes the underlying client.
func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}

// HealthCheck pings the server.
func (rp *Persistence) HealthCheck(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

// ListWorkflows returns paginated and filtered workflows.
func (rp *Persistence) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	entries, err := rp.client.HGetAll(ctx, workflowsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for id, body := range entries {
		var workflow models.Workflow
		if err := json.Unmarshal([]byte(body), &workflow); err != nil {
			return nil, persistence.NewStorageError("ListWorkflows", id, err)
		}

		workflows = append(workflows, &workflow)
	}

	return persistence.ApplyListOptions(workflows, opts)
}

// WorkflowByID retrieves a workflow.
func (rp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	body, err := rp.client.HGet(ctx, workflowsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewStorageError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("WorkflowByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal([]byte(body), &workflow); err != nil {
		return nil, persistence.NewStorageError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

// SaveWorkflow writes a workflow document, stamping timestamps.
func (rp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	body, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	if err := rp.client.HSet(ctx, workflowsKey, workflow.ID, body).Err(); err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow. Deleting a missing workflow is not an error.
func (rp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	if err := rp.client.HDel(ctx, workflowsKey, id).Err(); err != nil {
		return persistence.NewStorageError("DeleteWorkflow", id, err)
	}

	return nil
}

// Deployments returns all deployments sorted by creation time, newest first.
func (rp *Persistence) Deployments(ctx context.Context) ([]*models.Deployment, error) {
	entries, err := rp.client.HGetAll(ctx, deploymentsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	deployments := make([]*models.Deployment, 0, len(entries))

	for id, body := range entries {
		var deployment models.Deployment
		if err := json.Unmarshal([]byte(body), &deployment); err != nil {
			return nil, persistence.NewStorageError("Deployments", id, err)
		}

		deployments = append(deployments, &deployment)
	}

	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].CreatedAt.After(deployments[j].CreatedAt)
	})

	return deployments, nil
}

// DeploymentByID retrieves a deployment.
func (rp *Persistence) DeploymentByID(ctx context.Context, id string) (*models.Deployment, error) {
	body, err := rp.client.HGet(ctx, deploymentsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewStorageError("DeploymentByID", id, persistence.ErrDeploymentNotFound)
	}

	if err != nil {
		return nil, persistence.NewStorageError("DeploymentByID", id, err)
	}

	var deployment models.Deployment
	if err := json.Unmarshal([]byte(body), &deployment); err != nil {
		return nil, persistence.NewStorageError("DeploymentByID", id, err)
	}

	return &deployment, nil
}

// SaveDeployment writes a deployment document, stamping timestamps.
func (rp *Persistence) SaveDeployment(ctx context.Context, deployment *models.Deployment) error {
	now := time.Now().UTC()
	if deployment.CreatedAt.IsZero() {
		deployment.CreatedAt = now
	}

	deployment.UpdatedAt = now

	body, err := json.Marshal(deployment)
	if err != nil {
		return persistence.NewStorageError("SaveDeployment", deployment.ID, err)
	}

	if err := rp.client.HSet(ctx, deploymentsKey, deployment.ID, body).Err(); err != nil {
		return persistence.NewStorageError("SaveDeployment", deployment.ID, err)
	}

	return nil
}

// DeleteDeployment removes a deployment.
func (rp *Persistence) DeleteDeployment(ctx context.Context, id string) error {
	if err := rp.client.HDel(ctx, deploymentsKey, id).Err(); err != nil {
		return persistence.NewStorageError("DeleteDeployment", id, err)
	}

	return nil
}
