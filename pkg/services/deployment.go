package services

import (
	"context"
	"fmt"

	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
)

// ErrDeploymentNotFound is returned when a deployment is not found.
var ErrDeploymentNotFound = persistence.ErrDeploymentNotFound

type Deployment struct {
	persistence persistence.Persistence
	library     *templates.Library
}

// NewDeployment creates a new deployment service.
func NewDeployment(persistence persistence.Persistence, library *templates.Library) *Deployment {
	return &Deployment{persistence: persistence, library: library}
}

// List returns all deployments, newest first.
func (d *Deployment) List(ctx context.Context) ([]*models.Deployment, error) {
	deployments, err := d.persistence.Deployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	return deployments, nil
}

// FetchByID retrieves a deployment by its ID.
func (d *Deployment) FetchByID(ctx context.Context, id string) (*models.Deployment, error) {
	return d.persistence.DeploymentByID(ctx, id)
}

// Deploy instantiates a deployment from a template and persists it in
// pending state. The caller starts the pipeline separately.
func (d *Deployment) Deploy(ctx context.Context, templateID string) (*models.Deployment, error) {
	deployment, ok := d.library.LoadDeployment(templateID)
	if !ok {
		return nil, NewValidationError(
			"Deploy",
			"UNKNOWN_TEMPLATE",
			fmt.Sprintf("unknown deployment template '%s'", templateID),
			ErrUnknownTemplate,
		)
	}

	if err := d.persistence.SaveDeployment(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to save deployment: %w", err)
	}

	return deployment, nil
}

// DeployForWorkflow instantiates a template customized for a workflow
// rollout, overriding name and environment before persisting.
func (d *Deployment) DeployForWorkflow(ctx context.Context, templateID, name, environment string) (*models.Deployment, error) {
	deployment, ok := d.library.LoadDeployment(templateID)
	if !ok {
		return nil, NewValidationError(
			"DeployForWorkflow",
			"UNKNOWN_TEMPLATE",
			fmt.Sprintf("unknown deployment template '%s'", templateID),
			ErrUnknownTemplate,
		)
	}

	if name != "" {
		deployment.Name = name
	}

	if environment != "" {
		deployment.Environment = environment
	}

	if err := d.persistence.SaveDeployment(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to save deployment: %w", err)
	}

	return deployment, nil
}

// Delete removes a deployment by its ID.
func (d *Deployment) Delete(ctx context.Context, id string) error {
	if _, err := d.persistence.DeploymentByID(ctx, id); err != nil {
		return err
	}

	if err := d.persistence.DeleteDeployment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deployment: %w", err)
	}

	return nil
}
