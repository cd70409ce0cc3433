// Package main provides the FlowCanvas API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcanvas/flowcanvas/pkg/catalog"
	"github.com/flowcanvas/flowcanvas/pkg/eventbus"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/scheduler"
	"github.com/flowcanvas/flowcanvas/pkg/services"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
	"github.com/flowcanvas/flowcanvas/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	tracer      trace.Tracer
	scheduler   *scheduler.Scheduler
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	library := templates.NewLibrary()
	workflowService := services.NewWorkflow(a.persistence)
	deploymentService := services.NewDeployment(a.persistence, library)
	executions := services.NewExecutionManager(a.logger, a.eventBus, a.persistence, nil)
	if a.tracer != nil {
		executions.SetTracer(a.tracer)
	}

	a.scheduler = scheduler.NewScheduler(a.logger, a.persistence, executions)

	handlers := web.NewAPIHandlers(
		workflowService,
		deploymentService,
		executions,
		library,
		catalog.DefaultCatalog(),
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowCanvas API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

// SetTracer enables span emission for runs started through the API. Call
// before App.
func (a *API) SetTracer(tracer trace.Tracer) {
	a.tracer = tracer
}

// Scheduler returns the scheduler built by App, nil before App is called.
func (a *API) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}
