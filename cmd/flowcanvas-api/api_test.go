package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/cmd"
	"github.com/flowcanvas/flowcanvas/pkg/models"
	"github.com/flowcanvas/flowcanvas/pkg/persistence/file"
)

func setupTestApp(t *testing.T, tempDir string) *fiber.App {
	t.Helper()

	store := file.NewPersistence(tempDir)

	eventBus, err := cmd.NewEventBus("gochannel", slog.Default())
	require.NoError(t, err)

	api := NewAPI(slog.Default(), store, eventBus)

	return api.App()
}

type workflowListResponse struct {
	Workflows   []models.Workflow `json:"workflows"`
	TotalCount  int64             `json:"total_count"`
	HasNextPage bool              `json:"has_next_page"`
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "FlowCanvas API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result workflowListResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	assert.Zero(t, result.TotalCount)
}

func TestAPI_GetWorkflows_WithData(t *testing.T) {
	tempDir := t.TempDir()
	store := file.NewPersistence(tempDir)
	ctx := context.Background()

	workflow1 := &models.Workflow{
		ID:     "test-workflow-1",
		Name:   "Test Workflow 1",
		Status: models.WorkflowStatusActive,
		Nodes: []*models.Node{
			{
				ID:       "node1",
				Kind:     "trigger",
				Position: models.Position{X: 80, Y: 160},
				Config: map[string]any{
					"name":    "Start Trigger",
					"enabled": true,
				},
				Status: models.NodeStatusIdle,
			},
		},
	}

	workflow2 := &models.Workflow{
		ID:     "test-workflow-2",
		Name:   "Test Workflow 2",
		Status: models.WorkflowStatusDraft,
		Nodes: []*models.Node{
			{
				ID:       "node1",
				Kind:     "tool",
				Position: models.Position{X: 80, Y: 160},
				Config: map[string]any{
					"name":    "Reshape Payload",
					"enabled": true,
				},
				Status: models.NodeStatusIdle,
			},
		},
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow1))
	require.NoError(t, store.SaveWorkflow(ctx, workflow2))

	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result workflowListResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 2)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.False(t, result.HasNextPage)

	workflowIDs := []string{result.Workflows[0].ID, result.Workflows[1].ID}
	assert.Contains(t, workflowIDs, "test-workflow-1")
	assert.Contains(t, workflowIDs, "test-workflow-2")
}

func TestAPI_GetWorkflow_Success(t *testing.T) {
	tempDir := t.TempDir()
	store := file.NewPersistence(tempDir)

	workflow := &models.Workflow{
		ID:          "test-workflow-specific",
		Name:        "Specific Test Workflow",
		Description: "Fetched by id through the HTTP surface",
		Status:      models.WorkflowStatusActive,
		Nodes: []*models.Node{
			{
				ID:       "node1",
				Kind:     "tool",
				Position: models.Position{X: 80, Y: 160},
				Config: map[string]any{
					"name":    "Call API",
					"enabled": true,
					"url":     "https://api.example.com/data",
					"method":  "GET",
				},
				Status: models.NodeStatusIdle,
			},
			{
				ID:       "node2",
				Kind:     "output",
				Position: models.Position{X: 300, Y: 160},
				Config: map[string]any{
					"name":    "Deliver",
					"enabled": true,
				},
				Status: models.NodeStatusIdle,
			},
		},
		Connections: []*models.Connection{
			{
				ID:   "conn1",
				From: "node1",
				To:   "node2",
				Type: models.ConnectionTypeSuccess,
			},
		},
		Metadata: map[string]any{
			"team": "platform",
		},
	}

	require.NoError(t, store.SaveWorkflow(context.Background(), workflow))

	app := setupTestApp(t, tempDir)

	req := httptest.NewRequest(http.MethodGet, "/workflows/test-workflow-specific", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow

	err = json.NewDecoder(resp.Body).Decode(&fetched)
	require.NoError(t, err)

	assert.Equal(t, "test-workflow-specific", fetched.ID)
	assert.Equal(t, "Specific Test Workflow", fetched.Name)
	assert.Equal(t, models.WorkflowStatusActive, fetched.Status)
	assert.Len(t, fetched.Nodes, 2)
	assert.Equal(t, "tool", fetched.Nodes[0].Kind)
	assert.Len(t, fetched.Connections, 1)
	assert.Equal(t, models.ConnectionTypeSuccess, fetched.Connections[0].Type)
	assert.Equal(t, "platform", fetched.Metadata["team"])
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/workflows/non-existent-workflow", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/workflows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_ContentType_JSON(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestAPI_TemplateCatalogEndpoints(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var templates struct {
		Workflows   []map[string]any `json:"workflows"`
		Deployments []map[string]any `json:"deployments"`
	}

	err = json.NewDecoder(resp.Body).Decode(&templates)
	require.NoError(t, err)
	assert.NotEmpty(t, templates.Workflows)
	assert.NotEmpty(t, templates.Deployments)

	req = httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Accept", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var catalogResponse struct {
		Kinds []map[string]any `json:"kinds"`
	}

	err = json.NewDecoder(resp.Body).Decode(&catalogResponse)
	require.NoError(t, err)
	assert.NotEmpty(t, catalogResponse.Kinds)
}
