package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/file"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
)

func newDeploymentService(t *testing.T) *Deployment {
	t.Helper()

	return NewDeployment(file.NewPersistence(t.TempDir()), templates.NewLibrary())
}

func TestDeployFromTemplate(t *testing.T) {
	ctx := context.Background()
	service := newDeploymentService(t)

	deployment, err := service.Deploy(ctx, "cicd-pipeline")
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusPending, deployment.Status)
	assert.Len(t, deployment.Stages, 8)

	stored, err := service.FetchByID(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, deployment.ID, stored.ID)
}

func TestDeployUnknownTemplate(t *testing.T) {
	service := newDeploymentService(t)

	_, err := service.Deploy(context.Background(), "no-such-template")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.True(t, IsValidationError(err))
}

func TestDeploymentListNewestFirst(t *testing.T) {
	ctx := context.Background()
	service := newDeploymentService(t)

	first, err := service.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	second, err := service.Deploy(ctx, "cicd-pipeline")
	require.NoError(t, err)

	deployments, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, deployments, 2)

	ids := []string{deployments[0].ID, deployments[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestDeploymentDelete(t *testing.T) {
	ctx := context.Background()
	service := newDeploymentService(t)

	deployment, err := service.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, deployment.ID))

	_, err = service.FetchByID(ctx, deployment.ID)
	assert.ErrorIs(t, err, ErrDeploymentNotFound)

	assert.ErrorIs(t, service.Delete(ctx, deployment.ID), ErrDeploymentNotFound)
}
