package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/flowcanvas/flowcanvas/pkg/engine"
	"github.com/flowcanvas/flowcanvas/pkg/eventbus"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
)

// ExecutionManager owns the live runners for deployments and workflows.
// Runners hold the in-memory aggregate while executing; the manager persists
// the final state when a run finishes.
type ExecutionManager struct {
	mu              sync.Mutex
	logger          *slog.Logger
	bus             eventbus.EventPublisher
	persistence     persistence.Persistence
	clock           engine.Clock
	tracer          trace.Tracer
	pipelineRunners map[string]*engine.PipelineRunner
	workflowRunners map[string]*engine.WorkflowRunner
}

// NewExecutionManager creates an execution manager. clock may be nil for
// wall time.
func NewExecutionManager(
	logger *slog.Logger,
	bus eventbus.EventPublisher,
	persistence persistence.Persistence,
	clock engine.Clock,
) *ExecutionManager {
	return &ExecutionManager{
		logger:          logger.With("module", "executions"),
		bus:             bus,
		persistence:     persistence,
		clock:           clock,
		pipelineRunners: make(map[string]*engine.PipelineRunner),
		workflowRunners: make(map[string]*engine.WorkflowRunner),
	}
}

// SetTracer enables span emission on every runner created after the call.
func (m *ExecutionManager) SetTracer(tracer trace.Tracer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracer = tracer
}

// IsExecuting reports whether any managed runner is mid-run.
func (m *ExecutionManager) IsExecuting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, runner := range m.pipelineRunners {
		if runner.IsExecuting() {
			return true
		}
	}

	for _, runner := range m.workflowRunners {
		if runner.IsExecuting() {
			return true
		}
	}

	return false
}

// StartDeployment begins the pipeline for a stored deployment. The run is
// asynchronous; the deployment aggregate is persisted once the run finishes.
func (m *ExecutionManager) StartDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	deployment, err := m.persistence.DeploymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	runner := m.pipelineRunner(deployment)

	// Re-running a finished pipeline starts it from scratch. The runner's
	// aggregate is authoritative when one already exists for this id.
	if runner.Deployment().Terminal() {
		runner.Reset()
	}

	if err := runner.Start(ctx); err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return nil, ErrExecutionInProgress
		}

		return nil, err
	}

	go m.persistDeploymentWhenDone(runner)

	return runner.Deployment(), nil
}

// StopDeployment halts a running pipeline, leaving stage statuses as they
// last were.
func (m *ExecutionManager) StopDeployment(ctx context.Context, id string) error {
	m.mu.Lock()
	runner, ok := m.pipelineRunners[id]
	m.mu.Unlock()

	if !ok {
		return persistence.NewStorageError("StopDeployment", id, persistence.ErrDeploymentNotFound)
	}

	runner.Stop()

	return m.persistence.SaveDeployment(ctx, runner.Deployment())
}

// RollbackDeployment reverts a completed deployment to a prior version.
func (m *ExecutionManager) RollbackDeployment(ctx context.Context, id, version string) (*models.Deployment, error) {
	deployment, err := m.persistence.DeploymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	runner := m.pipelineRunner(deployment)

	if err := runner.Rollback(ctx, version); err != nil {
		if errors.Is(err, engine.ErrNotCompleted) {
			return nil, ErrRollbackUnavailable
		}

		return nil, err
	}

	deployment = runner.Deployment()
	if err := m.persistence.SaveDeployment(ctx, deployment); err != nil {
		return nil, err
	}

	return deployment, nil
}

// DeploymentState returns the live aggregate for a deployment if a runner
// holds it, falling back to the stored document.
func (m *ExecutionManager) DeploymentState(ctx context.Context, id string) (*models.Deployment, error) {
	m.mu.Lock()
	runner, ok := m.pipelineRunners[id]
	m.mu.Unlock()

	if ok {
		return runner.Deployment(), nil
	}

	return m.persistence.DeploymentByID(ctx, id)
}

// ExecuteWorkflow begins a simulated run of a stored workflow.
func (m *ExecutionManager) ExecuteWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := m.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	runner := m.workflowRunner(workflow)

	if err := runner.Start(ctx); err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return nil, ErrExecutionInProgress
		}

		return nil, err
	}

	go m.persistWorkflowWhenDone(runner)

	return runner.Workflow(), nil
}

func (m *ExecutionManager) pipelineRunner(deployment *models.Deployment) *engine.PipelineRunner {
	m.mu.Lock()
	defer m.mu.Unlock()

	if runner, ok := m.pipelineRunners[deployment.ID]; ok {
		return runner
	}

	runner := engine.NewPipelineRunner(m.logger, m.bus, m.clock, deployment)
	if m.tracer != nil {
		runner.SetTracer(m.tracer)
	}

	m.pipelineRunners[deployment.ID] = runner

	return runner
}

func (m *ExecutionManager) workflowRunner(workflow *models.Workflow) *engine.WorkflowRunner {
	m.mu.Lock()
	defer m.mu.Unlock()

	if runner, ok := m.workflowRunners[workflow.ID]; ok {
		// The stored document is authoritative between runs; edits made
		// since the last run must not be clobbered by a stale aggregate.
		runner.SetWorkflow(workflow)

		return runner
	}

	runner := engine.NewWorkflowRunner(m.logger, m.bus, m.clock, workflow)
	if m.tracer != nil {
		runner.SetTracer(m.tracer)
	}

	m.workflowRunners[workflow.ID] = runner

	return runner
}

func (m *ExecutionManager) persistDeploymentWhenDone(runner *engine.PipelineRunner) {
	<-runner.Done()

	ctx := context.Background()

	deployment := runner.Deployment()
	if err := m.persistence.SaveDeployment(ctx, deployment); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist deployment after run",
			"deployment_id", deployment.ID, "error", err)
	}
}

func (m *ExecutionManager) persistWorkflowWhenDone(runner *engine.WorkflowRunner) {
	<-runner.Done()

	ctx := context.Background()

	workflow := runner.Workflow()
	if err := m.persistence.SaveWorkflow(ctx, workflow); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist workflow after run",
			"workflow_id", workflow.ID, "error", err)
	}
}
