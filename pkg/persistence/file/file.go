// Package file provides file-based persistence for workflows and deployments.
// Each aggregate is stored as a single JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
)

const (
	workflowsDir   = "workflows"
	deploymentsDir = "deployments"
)

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A file:// scheme prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. There is nothing to clean up for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// ListWorkflows returns paginated and filtered workflows.
func (fp *Persistence) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	ids, err := fp.documentIDs(workflowsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := fp.WorkflowByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return persistence.ApplyListOptions(workflows, opts)
}

// WorkflowByID retrieves a workflow from the file system.
func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	if err := fp.readDocument(workflowsDir, id, &workflow); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewStorageError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewStorageError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

// SaveWorkflow writes a workflow document, stamping timestamps.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if err := fp.writeDocument(workflowsDir, workflow.ID, workflow); err != nil {
		return persistence.NewStorageError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow by its ID. Deleting a missing workflow
// is not an error.
func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	if err := fp.removeDocument(workflowsDir, id); err != nil {
		return persistence.NewStorageError("DeleteWorkflow", id, err)
	}

	return nil
}

// Deployments returns all deployments sorted by creation time, newest first.
func (fp *Persistence) Deployments(ctx context.Context) ([]*models.Deployment, error) {
	ids, err := fp.documentIDs(deploymentsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment files: %w", err)
	}

	deployments := make([]*models.Deployment, 0, len(ids))

	for _, id := range ids {
		deployment, err := fp.DeploymentByID(ctx, id)
		if err != nil {
			if persistence.IsDeploymentNotFound(err) {
				continue
			}

			return nil, err
		}

		deployments = append(deployments, deployment)
	}

	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].CreatedAt.After(deployments[j].CreatedAt)
	})

	return deployments, nil
}

// DeploymentByID retrieves a deployment from the file system.
func (fp *Persistence) DeploymentByID(_ context.Context, id string) (*models.Deployment, error) {
	var deployment models.Deployment

	if err := fp.readDocument(deploymentsDir, id, &deployment); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewStorageError("DeploymentByID", id, persistence.ErrDeploymentNotFound)
		}

		return nil, persistence.NewStorageError("DeploymentByID", id, err)
	}

	return &deployment, nil
}

// SaveDeployment writes a deployment document, stamping timestamps.
func (fp *Persistence) SaveDeployment(_ context.Context, deployment *models.Deployment) error {
	now := time.Now().UTC()
	if deployment.CreatedAt.IsZero() {
		deployment.CreatedAt = now
	}

	deployment.UpdatedAt = now

	if err := fp.writeDocument(deploymentsDir, deployment.ID, deployment); err != nil {
		return persistence.NewStorageError("SaveDeployment", deployment.ID, err)
	}

	return nil
}

// DeleteDeployment removes a deployment by its ID.
func (fp *Persistence) DeleteDeployment(_ context.Context, id string) error {
	if err := fp.removeDocument(deploymentsDir, id); err != nil {
		return persistence.NewStorageError("DeleteDeployment", id, err)
	}

	return nil
}

func (fp *Persistence) documentIDs(dir string) ([]string, error) {
	root := os.DirFS(path.Join(fp.root, dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}

func (fp *Persistence) readDocument(dir, id string, out any) error {
	filePath := filepath.Clean(path.Join(fp.root, dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, out)
}

func (fp *Persistence) writeDocument(dir, id string, doc any) error {
	if err := os.MkdirAll(path.Join(fp.root, dir), 0750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return os.WriteFile(path.Join(fp.root, dir, id+".json"), data, 0600)
}

func (fp *Persistence) removeDocument(dir, id string) error {
	err := os.Remove(path.Join(fp.root, dir, id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	return err
}
