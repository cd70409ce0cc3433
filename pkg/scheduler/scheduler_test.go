package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/engine"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/file"
	"github.com/flowcanvas/flowcanvas/pkg/services"
)

func newTestScheduler(t *testing.T) (*Scheduler, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	clock := engine.NewInstantClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	executions := services.NewExecutionManager(slog.Default(), nil, store, clock)

	return NewScheduler(slog.Default(), store, executions), store
}

func saveWorkflow(t *testing.T, store persistence.Persistence, status models.WorkflowStatus, schedule string) *models.Workflow {
	t.Helper()

	workflow := &models.Workflow{
		ID:     "wf-" + strings.ReplaceAll(schedule, "/", "-") + string(status),
		Name:   "Scheduled",
		Status: status,
	}
	if schedule != "" {
		workflow.Metadata = map[string]any{MetadataKeySchedule: schedule}
	}

	require.NoError(t, store.SaveWorkflow(context.Background(), workflow))

	return workflow
}

func TestSchedulerRegistersActiveScheduledWorkflows(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	saveWorkflow(t, store, models.WorkflowStatusActive, "*/5 * * * *")
	saveWorkflow(t, store, models.WorkflowStatusActive, "0 2 * * *")
	// Paused and unscheduled workflows are ignored.
	saveWorkflow(t, store, models.WorkflowStatusPaused, "*/5 * * * *")
	saveWorkflow(t, store, models.WorkflowStatusActive, "")

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Equal(t, 2, scheduler.Entries())
}

func TestSchedulerSkipsInvalidExpressions(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	saveWorkflow(t, store, models.WorkflowStatusActive, "not-a-cron")

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Equal(t, 0, scheduler.Entries())
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	saveWorkflow(t, store, models.WorkflowStatusActive, "*/5 * * * *")

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	require.NoError(t, scheduler.Start(ctx))
	assert.Equal(t, 1, scheduler.Entries())

	scheduler.Stop()
	assert.Equal(t, 0, scheduler.Entries())

	// Stop on a stopped scheduler is safe.
	scheduler.Stop()
}

func TestSchedulerRefreshPicksUpNewWorkflows(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	assert.Equal(t, 0, scheduler.Entries())

	saveWorkflow(t, store, models.WorkflowStatusActive, "*/10 * * * *")

	require.NoError(t, scheduler.Refresh(ctx))
	defer scheduler.Stop()

	assert.Equal(t, 1, scheduler.Entries())
}
