package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/engine"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/file"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
)

func newManagerFixture(t *testing.T) (*ExecutionManager, persistence.Persistence, *Deployment) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	clock := engine.NewInstantClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	manager := NewExecutionManager(slog.Default(), nil, store, clock)
	deployments := NewDeployment(store, templates.NewLibrary())

	return manager, store, deployments
}

func waitIdle(t *testing.T, manager *ExecutionManager) {
	t.Helper()

	assert.Eventually(t, func() bool { return !manager.IsExecuting() },
		2*time.Second, 10*time.Millisecond)
}

func TestStartDeploymentRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	manager, store, deployments := newManagerFixture(t)

	deployment, err := deployments.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	live, err := manager.StartDeployment(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, deployment.ID, live.ID)

	waitIdle(t, manager)

	stored, err := store.DeploymentByID(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusCompleted, stored.Status)

	for _, stage := range stored.Stages {
		assert.Equal(t, models.StageStatusCompleted, stage.Status)
		assert.Equal(t, 100, stage.Progress)
	}
}

func TestStartDeploymentUnknownID(t *testing.T) {
	manager, _, _ := newManagerFixture(t)

	_, err := manager.StartDeployment(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsDeploymentNotFound(err))
}

func TestRollbackRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	manager, _, deployments := newManagerFixture(t)

	deployment, err := deployments.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	_, err = manager.RollbackDeployment(ctx, deployment.ID, "v1.0.0")
	assert.ErrorIs(t, err, ErrRollbackUnavailable)
}

func TestRollbackAfterCompletion(t *testing.T) {
	ctx := context.Background()
	manager, store, deployments := newManagerFixture(t)

	deployment, err := deployments.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	_, err = manager.StartDeployment(ctx, deployment.ID)
	require.NoError(t, err)
	waitIdle(t, manager)

	rolled, err := manager.RollbackDeployment(ctx, deployment.ID, "v1.9.9")
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusRolledBack, rolled.Status)
	assert.Equal(t, "v1.9.9", rolled.RollbackVersion)

	stored, err := store.DeploymentByID(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusRolledBack, stored.Status)
}

func TestRestartAfterCompletionResets(t *testing.T) {
	ctx := context.Background()
	manager, _, deployments := newManagerFixture(t)

	deployment, err := deployments.Deploy(ctx, "staging-deploy")
	require.NoError(t, err)

	_, err = manager.StartDeployment(ctx, deployment.ID)
	require.NoError(t, err)
	waitIdle(t, manager)

	live, err := manager.StartDeployment(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusRunning, live.Status)
	waitIdle(t, manager)

	state, err := manager.DeploymentState(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusCompleted, state.Status)
}

func TestExecuteWorkflowUpdatesCounters(t *testing.T) {
	ctx := context.Background()
	manager, store, _ := newManagerFixture(t)

	library := templates.NewLibrary()
	workflow, ok := library.LoadWorkflow("data-analysis")
	require.True(t, ok)
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	_, err := manager.ExecuteWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	waitIdle(t, manager)

	stored, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ExecutionCount)
	assert.NotNil(t, stored.LastExecuted)
	assert.Equal(t, models.WorkflowStatusActive, stored.Status)

	// Node statuses are untouched by an aggregate-level run.
	for _, node := range stored.Nodes {
		assert.Equal(t, models.NodeStatusIdle, node.Status)
	}
}

func TestExecuteWorkflowPicksUpEditsBetweenRuns(t *testing.T) {
	ctx := context.Background()
	manager, store, _ := newManagerFixture(t)
	workflows := NewWorkflow(store)

	library := templates.NewLibrary()
	workflow, ok := library.LoadWorkflow("data-analysis")
	require.True(t, ok)
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	_, err := manager.ExecuteWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	waitIdle(t, manager)
	waitExecutionCount(t, store, workflow.ID, 1)

	// Rename between runs; the second run must not revert the edit when
	// it persists its counters.
	edited, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	edited.Name = "Renamed After First Run"
	edited.Metadata = map[string]any{"owner": "analytics"}

	_, err = workflows.Update(ctx, workflow.ID, edited)
	require.NoError(t, err)

	_, err = manager.ExecuteWorkflow(ctx, workflow.ID)
	require.NoError(t, err)
	waitIdle(t, manager)
	waitExecutionCount(t, store, workflow.ID, 2)

	stored, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed After First Run", stored.Name)
	assert.Equal(t, "analytics", stored.Metadata["owner"])
	assert.Equal(t, 2, stored.ExecutionCount)
}

// waitExecutionCount blocks until the persisted document reflects the run;
// the post-run persist happens on a goroutine after the runner goes idle.
func waitExecutionCount(t *testing.T, store persistence.Persistence, id string, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		stored, err := store.WorkflowByID(context.Background(), id)

		return err == nil && stored.ExecutionCount == count
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopDeploymentWithoutRunner(t *testing.T) {
	manager, _, _ := newManagerFixture(t)

	err := manager.StopDeployment(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsDeploymentNotFound(err))
}
