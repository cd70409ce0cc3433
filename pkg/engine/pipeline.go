// Package engine drives simulated execution runs: deployment pipelines step
// through their stages front-to-back, workflows replay a fixed script and
// update their aggregate counters. All timing goes through a Clock and every
// scheduled step is guarded by a generation counter, so callbacks from a
// superseded run can never corrupt a newer run's state.
package engine

import (
	"context"
	"fmt"
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

// DefaultStepDelay is the simulated cost of one log-line step.
const DefaultStepDelay = 600 * time.Millisecond

// PipelineRunner executes one deployment's stage list. It holds exclusive
// write access to status/progress/logs for the duration of a run.
type PipelineRunner struct {
	mu         sync.Mutex
	logger     *slog.Logger
	bus        eventbus.EventPublisher
	clock      Clock
	tracer     trace.Tracer
	deployment *models.Deployment
	stepDelay  time.Duration
	generation uint64
	executing  bool
	done       chan struct{}
}

// NewPipelineRunner binds a runner to a deployment. bus and clock may be nil;
// a nil clock means wall time, a nil bus disables event publishing.
func NewPipelineRunner(
	logger *slog.Logger,
	bus eventbus.EventPublisher,
	clock Clock,
	deployment *models.Deployment,
) *PipelineRunner {
	if clock == nil {
		clock = NewClock()
	}

	return &PipelineRunner{
		logger:     logger.With("deployment_id", deployment.ID),
		bus:        bus,
		clock:      clock,
		deployment: deployment,
		stepDelay:  DefaultStepDelay,
	}
}

// SetStepDelay overrides the per-log-line delay for subsequent runs.
func (r *PipelineRunner) SetStepDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stepDelay = d
}

// SetTracer enables span emission for runs and stages.
func (r *PipelineRunner) SetTracer(tracer trace.Tracer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracer = tracer
}

// Deployment returns the aggregate this runner drives.
func (r *PipelineRunner) Deployment() *models.Deployment {
	return r.deployment
}

// IsExecuting reports whether a run is in progress.
func (r *PipelineRunner) IsExecuting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.executing
}

// Done returns a channel closed when the current run finishes. It returns nil
// when no run was ever started.
func (r *PipelineRunner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.done
}

// Start launches an asynchronous run. A second Start while executing is
// rejected with ErrAlreadyRunning; nothing is queued.
func (r *PipelineRunner) Start(ctx context.Context) error {
	generation, err := r.begin()
	if err != nil {
		return err
	}

	go r.run(ctx, generation)

	return nil
}

// Run executes synchronously and returns when the run reaches a terminal
// state or is superseded.
func (r *PipelineRunner) Run(ctx context.Context) error {
	generation, err := r.begin()
	if err != nil {
		return err
	}

	r.run(ctx, generation)

	return nil
}

func (r *PipelineRunner) begin() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.executing {
		return 0, ErrAlreadyRunning
	}

	if len(r.deployment.Stages) == 0 {
		return 0, ErrNoStages
	}

	r.generation++
	r.executing = true
	r.done = make(chan struct{})

	now := r.clock.Now()
	r.deployment.Status = models.DeploymentStatusRunning
	r.deployment.StartTime = &now
	r.deployment.EndTime = nil

	return r.generation, nil
}

// Stop is a user-initiated halt. The current step chain is invalidated and
// every unit keeps whatever status it last reached.
func (r *PipelineRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.executing {
		return
	}

	r.generation++
	r.executing = false
	close(r.done)
}

// Reset returns the deployment and all stages to their initial state and
// invalidates any in-flight run.
func (r *PipelineRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++

	if r.executing {
		r.executing = false
		close(r.done)
	}

	r.deployment.Status = models.DeploymentStatusPending
	r.deployment.StartTime = nil
	r.deployment.EndTime = nil

	for _, stage := range r.deployment.Stages {
		stage.Status = models.StageStatusPending
		stage.StartTime = nil
		stage.EndTime = nil
		stage.Progress = 0
		stage.Logs = nil
		stage.Error = ""
	}
}

// Rollback is available only once the deployment completed. It flips the
// aggregate to rolled-back and records the version; it does not re-run or
// reverse stage effects.
func (r *PipelineRunner) Rollback(ctx context.Context, version string) error {
	r.mu.Lock()

	if r.deployment.Status != models.DeploymentStatusCompleted {
		r.mu.Unlock()

		return fmt.Errorf("%w: status is %s", ErrNotCompleted, r.deployment.Status)
	}

	r.deployment.Status = models.DeploymentStatusRolledBack
	r.deployment.RollbackVersion = version
	event := events.DeploymentRolledBack{
		BaseEvent:       r.baseEvent(events.DeploymentRolledBackEvent),
		DeploymentID:    r.deployment.ID,
		RollbackVersion: version,
	}
	r.mu.Unlock()

	r.publish(ctx, event)
	r.logger.Info("Deployment rolled back", "rollback_version", version)

	return nil
}

func (r *PipelineRunner) run(ctx context.Context, generation uint64) {
	runCtx := ctx

	var runSpan trace.Span

	if r.tracer != nil {
		runCtx, runSpan = otelhelper.StartSpan(ctx, r.tracer, "deployment.run",
			attribute.String(otelhelper.DeploymentIDKey, r.deployment.ID),
		)
		defer runSpan.End()
	}

	r.publish(runCtx, events.DeploymentStarted{
		BaseEvent:    r.baseEvent(events.DeploymentStartedEvent),
		DeploymentID: r.deployment.ID,
		Version:      r.deployment.Version,
		StageCount:   len(r.deployment.Stages),
	})

	for index, stage := range r.deployment.Stages {
		if !r.runStage(runCtx, generation, index, stage) {
			return
		}
	}

	r.completeDeployment(runCtx, generation)
}

func (r *PipelineRunner) runStage(ctx context.Context, generation uint64, index int, stage *models.PipelineStage) bool {
	stageCtx := ctx

	var stageSpan trace.Span

	if r.tracer != nil {
		stageCtx, stageSpan = otelhelper.StartSpan(ctx, r.tracer, "deployment.stage",
			attribute.String(otelhelper.StageIDKey, stage.ID),
			attribute.String(otelhelper.StageNameKey, stage.Name),
		)
		defer stageSpan.End()
	}

	if !r.beginStage(stageCtx, generation, index, stage) {
		return false
	}

	script := stage.Script
	if len(script) == 0 {
		script = defaultScript(stage.Name)
	}

	for lineIndex, line := range script {
		if err := r.clock.Sleep(stageCtx, r.stepDelay); err != nil {
			if stageSpan != nil {
				otelhelper.SetError(stageSpan, err,
					attribute.String(otelhelper.StageIDKey, stage.ID),
				)
			}

			r.abort(generation)

			return false
		}

		progress := (lineIndex + 1) * 100 / len(script)
		if !r.appendStageLog(stageCtx, generation, stage, line, progress) {
			return false
		}
	}

	return r.completeStage(stageCtx, generation, stage)
}

func (r *PipelineRunner) beginStage(ctx context.Context, generation uint64, index int, stage *models.PipelineStage) bool {
	r.mu.Lock()

	if generation != r.generation {
		r.mu.Unlock()

		return false
	}

	now := r.clock.Now()
	stage.Status = models.StageStatusRunning
	stage.StartTime = &now
	stage.EndTime = nil
	stage.Progress = 0
	stage.Logs = nil
	event := events.StageStarted{
		BaseEvent:    r.baseEvent(events.StageStartedEvent),
		DeploymentID: r.deployment.ID,
		StageID:      stage.ID,
		StageName:    stage.Name,
		StageIndex:   index,
	}
	r.mu.Unlock()

	r.publish(ctx, event)
	r.logger.Info("Stage started", "stage_id", stage.ID, "stage_name", stage.Name)

	return true
}

func (r *PipelineRunner) appendStageLog(ctx context.Context, generation uint64, stage *models.PipelineStage, line string, progress int) bool {
	r.mu.Lock()

	if generation != r.generation {
		r.mu.Unlock()

		return false
	}

	stage.Logs = append(stage.Logs, line)
	stage.Progress = progress
	event := events.StageLogAppended{
		BaseEvent:    r.baseEvent(events.StageLogAppendedEvent),
		DeploymentID: r.deployment.ID,
		StageID:      stage.ID,
		Line:         line,
		Progress:     progress,
	}
	r.mu.Unlock()

	r.publish(ctx, event)

	return true
}

func (r *PipelineRunner) completeStage(ctx context.Context, generation uint64, stage *models.PipelineStage) bool {
	r.mu.Lock()

	if generation != r.generation {
		r.mu.Unlock()

		return false
	}

	now := r.clock.Now()
	stage.Status = models.StageStatusCompleted
	stage.EndTime = &now
	stage.Progress = 100
	event := events.StageCompleted{
		BaseEvent:    r.baseEvent(events.StageCompletedEvent),
		DeploymentID: r.deployment.ID,
		StageID:      stage.ID,
		Status:       stage.Status,
		DurationMs:   stage.Duration().Milliseconds(),
	}
	r.mu.Unlock()

	r.publish(ctx, event)
	r.logger.Info("Stage completed", "stage_id", stage.ID, "duration_ms", event.DurationMs)

	return true
}

func (r *PipelineRunner) completeDeployment(ctx context.Context, generation uint64) {
	r.mu.Lock()

	if generation != r.generation {
		r.mu.Unlock()

		return
	}

	lastStage := r.deployment.Stages[len(r.deployment.Stages)-1]
	r.deployment.Status = models.DeploymentStatusCompleted
	r.deployment.EndTime = lastStage.EndTime
	r.executing = false
	close(r.done)

	var durationMs int64
	if r.deployment.StartTime != nil && r.deployment.EndTime != nil {
		durationMs = r.deployment.EndTime.Sub(*r.deployment.StartTime).Milliseconds()
	}

	event := events.DeploymentCompleted{
		BaseEvent:    r.baseEvent(events.DeploymentCompletedEvent),
		DeploymentID: r.deployment.ID,
		Status:       r.deployment.Status,
		DurationMs:   durationMs,
	}
	r.mu.Unlock()

	r.publish(ctx, event)
	r.logger.Info("Deployment completed", "duration_ms", durationMs)
}

// abort marks the run finished after a cancelled sleep. State stays at
// whatever the run last committed.
func (r *PipelineRunner) abort(generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		return
	}

	r.executing = false
	close(r.done)
}

func (r *PipelineRunner) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: r.clock.Now(),
	}
}

func (r *PipelineRunner) publish(ctx context.Context, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, r.deployment.ID, event); err != nil {
		r.logger.Error("Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}

func defaultScript(stageName string) []string {
	return []string{
		"Starting " + stageName,
		stageName + " in progress",
		stageName + " finished",
	}
}
