// Package main provides a headless runner that executes a template pipeline
// or workflow and streams its events to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/flowcanvas/flowcanvas/pkg/cmd"
	"github.com/flowcanvas/flowcanvas/pkg/engine"
	"github.com/flowcanvas/flowcanvas/pkg/eventbus"
	"github.com/flowcanvas/flowcanvas/pkg/events"
	"github.com/flowcanvas/flowcanvas/pkg/log"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
)

func main() {
	logger := log.WithModule("run")

	app := &cli.Command{
		Name:                  "flowcanvas-run",
		Usage:                 "Execute a template deployment or workflow headlessly",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "Template id to run",
				Value:   "cicd-pipeline",
			},
			&cli.BoolFlag{
				Name:  "fast",
				Usage: "Run with a synthetic clock, no real delays",
			},
			&cli.DurationFlag{
				Name:  "step-delay",
				Usage: "Delay between emitted log lines",
				Value: engine.DefaultStepDelay,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			library := templates.NewLibrary()
			templateID := command.String("template")

			var clock engine.Clock
			if command.Bool("fast") {
				clock = engine.NewInstantClock(time.Now().UTC())
			}

			bus, err := cmd.NewEventBus("gochannel", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registerPrinters(bus)

			subCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			if err := bus.Subscribe(subCtx); err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			if deployment, ok := library.LoadDeployment(templateID); ok {
				runner := engine.NewPipelineRunner(logger, bus, clock, deployment)
				runner.SetStepDelay(command.Duration("step-delay"))

				if err := runner.Run(ctx); err != nil {
					return err
				}

				// Give the in-process bus a beat to drain.
				time.Sleep(100 * time.Millisecond)
				fmt.Printf("\nDeployment %s finished: %s\n", deployment.Name, deployment.Status)

				return nil
			}

			if workflow, ok := library.LoadWorkflow(templateID); ok {
				runner := engine.NewWorkflowRunner(logger, bus, clock, workflow)
				runner.SetStepDelay(command.Duration("step-delay"))

				if err := runner.Run(ctx); err != nil {
					return err
				}

				time.Sleep(100 * time.Millisecond)
				fmt.Printf("\nWorkflow %s finished: %s\n", workflow.Name, workflow.Status)

				return nil
			}

			return fmt.Errorf("unknown template: %s", templateID)
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

// registerPrinters attaches stdout handlers for every run event type.
func registerPrinters(bus eventbus.EventBus) {
	print := func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}

	_ = bus.Handle(events.DeploymentStartedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.DeploymentStarted); ok {
			print("==> Deployment %s started (%d stages)", e.DeploymentID, e.StageCount)
		}

		return nil
	})

	_ = bus.Handle(events.StageStartedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.StageStarted); ok {
			print("--> [%d] %s", e.StageIndex+1, e.StageName)
		}

		return nil
	})

	_ = bus.Handle(events.StageLogAppendedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.StageLogAppended); ok {
			print("    %s (%d%%)", e.Line, e.Progress)
		}

		return nil
	})

	_ = bus.Handle(events.StageCompletedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.StageCompleted); ok {
			print("<-- stage %s: %s in %dms", e.StageID, e.Status, e.DurationMs)
		}

		return nil
	})

	_ = bus.Handle(events.DeploymentCompletedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.DeploymentCompleted); ok {
			print("==> Deployment %s: %s in %dms", e.DeploymentID, e.Status, e.DurationMs)
		}

		return nil
	})

	_ = bus.Handle(events.WorkflowExecutionStartedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.WorkflowExecutionStarted); ok {
			print("==> Workflow %s started", e.WorkflowID)
		}

		return nil
	})

	_ = bus.Handle(events.WorkflowLogEmittedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.WorkflowLogEmitted); ok {
			print("    %s", e.Line)
		}

		return nil
	})

	_ = bus.Handle(events.WorkflowExecutionCompletedEvent, func(_ context.Context, event interface{}) error {
		if e, ok := event.(*events.WorkflowExecutionCompleted); ok {
			print("==> Workflow %s: run #%d in %dms", e.WorkflowID, e.ExecutionCount, e.DurationMs)
		}

		return nil
	})
}
