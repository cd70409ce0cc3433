package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes wires all API endpoints onto the app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)

	app.Post("/agent-workflows/deploy", handlers.DeployAgentWorkflow)

	d := app.Group("/deployments")
	d.Get("/", handlers.GetDeployments)
	d.Post("/", handlers.CreateDeployment)
	d.Get("/:id", handlers.GetDeployment)
	d.Post("/:id/start", handlers.StartDeployment)
	d.Post("/:id/stop", handlers.StopDeployment)
	d.Post("/:id/rollback", handlers.RollbackDeployment)

	app.Get("/templates", handlers.GetTemplates)
	app.Post("/templates/:id/instantiate", handlers.InstantiateTemplate)

	app.Get("/catalog", handlers.GetCatalog)
	app.Get("/health", handlers.HealthCheck)
}
