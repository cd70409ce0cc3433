package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcanvas/flowcanvas/pkg/eventbus"
	"github.com/flowcanvas/flowcanvas/pkg/events"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/otelhelper"
)

// workflowRunScript is the fixed log sequence a simulated workflow run
// replays. The designer graph is illustrative; only the aggregate counters
// are authoritative, so the run does not walk the graph or drive individual
// node statuses.
var workflowRunScript = []string{
	"Initializing workflow runtime",
	"Validating graph structure",
	"Resolving node configuration",
	"Dispatching simulated node work",
	"Collecting results",
	"Execution finished",
}

// WorkflowRunner simulates executing a designed workflow graph.
type WorkflowRunner struct {
	mu         sync.Mutex
	logger     *slog.Logger
	bus        eventbus.EventPublisher
	clock      Clock
	tracer     trace.Tracer
	workflow   *models.Workflow
	stepDelay  time.Duration
	generation uint64
	executing  bool
	done       chan struct{}
}

func NewWorkflowRunner(
	logger *slog.Logger,
	bus eventbus.EventPublisher,
	clock Clock,
	workflow *models.Workflow,
) *WorkflowRunner {
	if clock == nil {
		clock = NewClock()
	}

	return &WorkflowRunner{
		logger:    logger.With("workflow_id", workflow.ID),
		bus:       bus,
		clock:     clock,
		workflow:  workflow,
		stepDelay: DefaultStepDelay,
	}
}

func (r *WorkflowRunner) SetStepDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stepDelay = d
}

func (r *WorkflowRunner) SetTracer(tracer trace.Tracer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracer = tracer
}

func (r *WorkflowRunner) Workflow() *models.Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.workflow
}

// SetWorkflow replaces the runner's aggregate with a fresher document so
// design-time edits made between runs survive the next run's persist.
// Refused mid-run: the live aggregate is authoritative until the run ends.
func (r *WorkflowRunner) SetWorkflow(workflow *models.Workflow) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.executing {
		return false
	}

	r.workflow = workflow

	return true
}

func (r *WorkflowRunner) IsExecuting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.executing
}

// Done returns a channel closed when the current run finishes, or nil when
// no run was started.
func (r *WorkflowRunner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.done
}

// Start launches an asynchronous run; a second call while executing is
// rejected with ErrAlreadyRunning.
func (r *WorkflowRunner) Start(ctx context.Context) error {
	generation, err := r.begin()
	if err != nil {
		return err
	}

	go r.run(ctx, generation)

	return nil
}

// Run executes synchronously.
func (r *WorkflowRunner) Run(ctx context.Context) error {
	generation, err := r.begin()
	if err != nil {
		return err
	}

	r.run(ctx, generation)

	return nil
}

// Stop invalidates the in-flight run; counters are only updated by runs that
// reach their final step.
func (r *WorkflowRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.executing {
		return
	}

	r.generation++
	r.executing = false
	close(r.done)
}

func (r *WorkflowRunner) begin() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.executing {
		return 0, ErrAlreadyRunning
	}

	r.generation++
	r.executing = true
	r.done = make(chan struct{})

	return r.generation, nil
}

func (r *WorkflowRunner) run(ctx context.Context, generation uint64) {
	runCtx := ctx

	var runSpan trace.Span

	if r.tracer != nil {
		runCtx, runSpan = otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
			attribute.String(otelhelper.WorkflowIDKey, r.workflow.ID),
			attribute.String(otelhelper.WorkflowNameKey, r.workflow.Name),
		)
		defer runSpan.End()
	}

	started := r.clock.Now()

	r.publish(runCtx, events.WorkflowExecutionStarted{
		BaseEvent:  r.baseEvent(events.WorkflowExecutionStartedEvent),
		WorkflowID: r.workflow.ID,
	})

	for _, line := range workflowRunScript {
		if err := r.clock.Sleep(runCtx, r.stepDelay); err != nil {
			if runSpan != nil {
				otelhelper.SetError(runSpan, err,
					attribute.String(otelhelper.WorkflowIDKey, r.workflow.ID),
				)
			}

			r.abort(generation)

			return
		}

		r.mu.Lock()

		if generation != r.generation {
			r.mu.Unlock()

			return
		}

		event := events.WorkflowLogEmitted{
			BaseEvent:  r.baseEvent(events.WorkflowLogEmittedEvent),
			WorkflowID: r.workflow.ID,
			Line:       line,
		}
		r.mu.Unlock()

		r.publish(runCtx, event)
	}

	r.complete(runCtx, generation, started)
}

func (r *WorkflowRunner) complete(ctx context.Context, generation uint64, started time.Time) {
	r.mu.Lock()

	if generation != r.generation {
		r.mu.Unlock()

		return
	}

	now := r.clock.Now()
	r.workflow.Status = models.WorkflowStatusActive
	r.workflow.ExecutionCount++
	r.workflow.LastExecuted = &now
	r.executing = false
	close(r.done)

	event := events.WorkflowExecutionCompleted{
		BaseEvent:      r.baseEvent(events.WorkflowExecutionCompletedEvent),
		WorkflowID:     r.workflow.ID,
		ExecutionCount: r.workflow.ExecutionCount,
		DurationMs:     now.Sub(started).Milliseconds(),
	}
	r.mu.Unlock()

	r.publish(ctx, event)
	r.logger.Info("Workflow execution completed", "execution_count", event.ExecutionCount)
}

func (r *WorkflowRunner) abort(generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		return
	}

	r.executing = false
	close(r.done)
}

func (r *WorkflowRunner) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: r.clock.Now(),
	}
}

func (r *WorkflowRunner) publish(ctx context.Context, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, r.workflow.ID, event); err != nil {
		r.logger.Error("Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}
