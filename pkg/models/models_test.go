package models

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_Validation(t *testing.T) {
	validate := validator.New()

	workflow := &Workflow{
		ID:     "wf-1",
		Name:   "Customer Support Agent",
		Status: WorkflowStatusDraft,
	}
	assert.NoError(t, validate.Struct(workflow))

	workflow.Name = "ab" // below min length
	assert.Error(t, validate.Struct(workflow))

	workflow.Name = "Customer Support Agent"
	workflow.Status = ""
	assert.Error(t, validate.Struct(workflow))
}

func TestNode_ConfigAccessors(t *testing.T) {
	node := &Node{
		ID:   "node-1",
		Kind: "llm",
		Config: map[string]any{
			ConfigKeyName:    "Classify Intent",
			ConfigKeyEnabled: true,
		},
	}

	assert.Equal(t, "Classify Intent", node.Name())
	assert.True(t, node.Enabled())

	// Missing keys fall back to zero values instead of panicking.
	bare := &Node{ID: "node-2", Kind: "tool", Config: map[string]any{}}
	assert.Empty(t, bare.Name())
	assert.False(t, bare.Enabled())
}

func TestConnection_Validation(t *testing.T) {
	validate := validator.New()

	conn := &Connection{
		ID:   "conn-1",
		From: "node-1",
		To:   "node-2",
		Type: ConnectionTypeSuccess,
	}
	assert.NoError(t, validate.Struct(conn))

	conn.From = ""
	assert.Error(t, validate.Struct(conn))
}

func TestPipelineStage_Duration(t *testing.T) {
	stage := &PipelineStage{ID: "stage-1", Name: "Build"}
	assert.Equal(t, time.Duration(0), stage.Duration())

	start := time.Now()
	end := start.Add(3 * time.Second)
	stage.StartTime = &start
	stage.EndTime = &end
	assert.Equal(t, 3*time.Second, stage.Duration())
}

func TestPipelineStage_Terminal(t *testing.T) {
	cases := []struct {
		status   StageStatus
		terminal bool
	}{
		{StageStatusPending, false},
		{StageStatusRunning, false},
		{StageStatusCompleted, true},
		{StageStatusFailed, true},
		{StageStatusSkipped, true},
	}

	for _, tc := range cases {
		stage := &PipelineStage{Status: tc.status}
		assert.Equal(t, tc.terminal, stage.Terminal(), "status %s", tc.status)
	}
}

func TestWorkflow_Node(t *testing.T) {
	workflow := &Workflow{
		ID:     "wf-1",
		Name:   "Data Analysis",
		Status: WorkflowStatusDraft,
		Nodes: []*Node{
			{ID: "node-1", Kind: "trigger"},
			{ID: "node-2", Kind: "output"},
		},
	}

	node := workflow.Node("node-2")
	require.NotNil(t, node)
	assert.Equal(t, "output", node.Kind)
	assert.Nil(t, workflow.Node("node-missing"))
}
