package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowcanvas/flowcanvas/pkg/catalog"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence"
	"github.com/flowcanvas/flowcanvas/pkg/services"
	"github.com/flowcanvas/flowcanvas/pkg/templates"
)

// DefaultPipelineTemplate is the deployment template used when deploying an
// agent workflow.
const DefaultPipelineTemplate = "cicd-pipeline"

type APIHandlers struct {
	workflowService   *services.Workflow
	deploymentService *services.Deployment
	executions        *services.ExecutionManager
	library           *templates.Library
	catalog           *catalog.Catalog
	validator         *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	deploymentService *services.Deployment,
	executions *services.ExecutionManager,
	library *templates.Library,
	nodeCatalog *catalog.Catalog,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		deploymentService: deploymentService,
		executions:        executions,
		library:           library,
		catalog:           nodeCatalog,
		validator:         validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
		Nodes:       []*models.Node{},
		Connections: []*models.Connection{},
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Status != nil {
		existing.Status = *req.Status
	}

	if req.Metadata != nil {
		existing.Metadata = req.Metadata
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Connections != nil {
		existing.Connections = req.Connections
	}

	if req.Nodes != nil || req.Connections != nil {
		if err := graph.Validate(h.catalog, existing.Nodes, existing.Connections); err != nil {
			return badRequest(c, "Invalid workflow graph: "+err.Error())
		}
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow starts a simulated run for a stored workflow.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.executions.ExecuteWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(workflow)
}

// DeployAgentWorkflow persists the posted workflow as active and launches a
// pipeline deployment for it.
func (h *APIHandlers) DeployAgentWorkflow(c fiber.Ctx) error {
	var req DeployAgentWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := graph.Validate(h.catalog, req.Nodes, req.Connections); err != nil {
		return badRequest(c, "Invalid workflow graph: "+err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.WorkflowStatusActive,
		Nodes:       req.Nodes,
		Connections: req.Connections,
	}

	workflow, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	deployment, err := h.deploymentService.DeployForWorkflow(
		c.Context(), DefaultPipelineTemplate, req.Name, req.Environment)
	if err != nil {
		return handleServiceError(c, err)
	}

	deployment, err = h.executions.StartDeployment(c.Context(), deployment.ID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow":   workflow,
		"deployment": deployment,
	})
}

func (h *APIHandlers) GetDeployments(c fiber.Ctx) error {
	deployments, err := h.deploymentService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"deployments": deployments})
}

func (h *APIHandlers) GetDeployment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Deployment ID is required")
	}

	deployment, err := h.executions.DeploymentState(c.Context(), id)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return notFound(c, "Deployment not found")
		}

		return internalError(c, err)
	}

	return c.JSON(deployment)
}

func (h *APIHandlers) CreateDeployment(c fiber.Ctx) error {
	var req CreateDeploymentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	deployment, err := h.deploymentService.Deploy(c.Context(), req.TemplateID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(deployment)
}

func (h *APIHandlers) StartDeployment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Deployment ID is required")
	}

	deployment, err := h.executions.StartDeployment(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(deployment)
}

func (h *APIHandlers) StopDeployment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Deployment ID is required")
	}

	if err := h.executions.StopDeployment(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RollbackDeployment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Deployment ID is required")
	}

	var req RollbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	deployment, err := h.executions.RollbackDeployment(c.Context(), id, req.Version)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(deployment)
}

// GetTemplates lists workflow and deployment templates.
func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	response := TemplatesResponse{
		Workflows:   make([]TemplateSummary, 0),
		Deployments: make([]TemplateSummary, 0),
	}

	for _, t := range h.library.Workflows() {
		response.Workflows = append(response.Workflows, TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Nodes:       len(t.Nodes),
		})
	}

	for _, t := range h.library.Deployments() {
		response.Deployments = append(response.Deployments, TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Environment: t.Environment,
			Stages:      len(t.Stages),
		})
	}

	return c.JSON(response)
}

// InstantiateTemplate creates a workflow or deployment from a template id.
func (h *APIHandlers) InstantiateTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	if workflow, ok := h.library.LoadWorkflow(id); ok {
		if err := h.workflowService.SaveLoaded(c.Context(), workflow); err != nil {
			return internalError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workflow": workflow})
	}

	deployment, err := h.deploymentService.Deploy(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"deployment": deployment})
}

// GetCatalog lists the node kinds available to the designer.
func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"kinds": h.catalog.Kinds()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
