// Package scheduler triggers simulated runs of active workflows that carry a
// cron expression in their metadata.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/services"
)

// MetadataKeySchedule is the workflow metadata key holding the cron expression.
const MetadataKeySchedule = "schedule"

// Scheduler polls active workflows and registers a cron entry per scheduled
// workflow. Entries are rebuilt on every Refresh.
type Scheduler struct {
	mu          sync.Mutex
	logger      *slog.Logger
	persistence persistence.Persistence
	executions  *services.ExecutionManager
	cron        *cron.Cron
}

func NewScheduler(
	logger *slog.Logger,
	persistence persistence.Persistence,
	executions *services.ExecutionManager,
) *Scheduler {
	return &Scheduler{
		logger:      logger.With("module", "scheduler"),
		persistence: persistence,
		executions:  executions,
	}
}

// Start loads scheduled workflows and begins dispatching. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	count, err := s.register(ctx)
	if err != nil {
		s.cron = nil

		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "entries", count)

	return nil
}

// Stop halts dispatching and waits for in-flight jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.cron = nil
	s.logger.Info("Scheduler stopped")
}

// Refresh rebuilds the cron entries from the current workflow set.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.Stop()

	return s.Start(ctx)
}

// Entries reports how many schedules are currently registered.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return 0
	}

	return len(s.cron.Entries())
}

func (s *Scheduler) register(ctx context.Context) (int, error) {
	status := models.WorkflowStatusActive

	result, err := s.persistence.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Status: &status,
		Limit:  100,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list active workflows: %w", err)
	}

	count := 0

	for _, workflow := range result.Workflows {
		expr, ok := scheduleExpression(workflow)
		if !ok {
			continue
		}

		if _, err := cron.ParseStandard(expr); err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow with invalid cron expression",
				"workflow_id", workflow.ID, "schedule", expr, "error", err)

			continue
		}

		workflowID := workflow.ID

		_, err := s.cron.AddFunc(expr, func() { s.dispatch(workflowID) })
		if err != nil {
			return count, fmt.Errorf("failed to add cron entry for workflow %s: %w", workflowID, err)
		}

		count++
	}

	return count, nil
}

func (s *Scheduler) dispatch(workflowID string) {
	ctx := context.Background()

	_, err := s.executions.ExecuteWorkflow(ctx, workflowID)
	if err != nil {
		// A run already in flight is expected under dense schedules.
		if services.IsConflictError(err) {
			s.logger.Debug("Skipping scheduled run, workflow already executing",
				"workflow_id", workflowID)

			return
		}

		s.logger.Error("Scheduled run failed to start",
			"workflow_id", workflowID, "error", err)

		return
	}

	s.logger.Info("Scheduled run started", "workflow_id", workflowID)
}

func scheduleExpression(workflow *models.Workflow) (string, bool) {
	if workflow.Metadata == nil {
		return "", false
	}

	expr, ok := workflow.Metadata[MetadataKeySchedule].(string)
	if !ok || expr == "" {
		return "", false
	}

	return expr, true
}
