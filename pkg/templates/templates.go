// Package templates holds the static in-memory template library and the
// loader that instantiates fresh workflows and deployments from it.
package templates

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/models"
)

// Deterministic layout for instantiated nodes: evenly spaced along a
// horizontal axis.
const (
	layoutStartX   = 80.0
	layoutSpacingX = 220.0
	layoutY        = 160.0
)

// WorkflowTemplate describes a predefined node graph. Node keys are local to
// the template; the loader maps them to fresh uuids on every instantiation.
type WorkflowTemplate struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Nodes       []TemplateNode       `json:"nodes"`
	Connections []TemplateConnection `json:"connections"`
}

type TemplateNode struct {
	Key    string         `json:"key"`
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config,omitempty"`
}

type TemplateConnection struct {
	From      string                `json:"from"`
	To        string                `json:"to"`
	Type      models.ConnectionType `json:"type"`
	Condition string                `json:"condition,omitempty"`
}

// DeploymentTemplate describes an ordered pipeline with per-stage log
// scripts the engine replays.
type DeploymentTemplate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Environment string          `json:"environment"`
	Version     string          `json:"version"`
	Stages      []TemplateStage `json:"stages"`
}

type TemplateStage struct {
	Name   string   `json:"name"`
	Script []string `json:"script"`
}

// Library is the read-only template registry.
type Library struct {
	workflows   map[string]WorkflowTemplate
	deployments map[string]DeploymentTemplate
}

// NewLibrary builds a library with the built-in templates registered.
func NewLibrary() *Library {
	l := &Library{
		workflows:   make(map[string]WorkflowTemplate),
		deployments: make(map[string]DeploymentTemplate),
	}

	for _, t := range builtinWorkflowTemplates {
		l.workflows[t.ID] = t
	}

	for _, t := range builtinDeploymentTemplates {
		l.deployments[t.ID] = t
	}

	return l
}

// Workflows lists workflow templates sorted by id.
func (l *Library) Workflows() []WorkflowTemplate {
	out := make([]WorkflowTemplate, 0, len(l.workflows))
	for _, t := range l.workflows {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Deployments lists deployment templates sorted by id.
func (l *Library) Deployments() []DeploymentTemplate {
	out := make([]DeploymentTemplate, 0, len(l.deployments))
	for _, t := range l.deployments {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// LoadWorkflow instantiates a new workflow from a template. Unknown ids
// produce nothing. Every call creates a fresh aggregate with new ids and
// timestamps; existing workflows are never mutated.
func (l *Library) LoadWorkflow(templateID string) (*models.Workflow, bool) {
	template, ok := l.workflows[templateID]
	if !ok {
		return nil, false
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        template.Name,
		Description: template.Description,
		Status:      models.WorkflowStatusDraft,
		Nodes:       make([]*models.Node, 0, len(template.Nodes)),
		Connections: make([]*models.Connection, 0, len(template.Connections)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	idByKey := make(map[string]string, len(template.Nodes))

	for i, tn := range template.Nodes {
		config := map[string]any{
			models.ConfigKeyName:    tn.Name,
			models.ConfigKeyEnabled: true,
		}

		for k, v := range tn.Config {
			config[k] = v
		}

		node := &models.Node{
			ID:   uuid.New().String(),
			Kind: tn.Kind,
			Position: models.Position{
				X: layoutStartX + float64(i)*layoutSpacingX,
				Y: layoutY,
			},
			Config: config,
			Status: models.NodeStatusIdle,
		}

		idByKey[tn.Key] = node.ID
		workflow.Nodes = append(workflow.Nodes, node)
	}

	// Template connections are wired as declared, conditional labels and
	// back edges included.
	for _, tc := range template.Connections {
		from, okFrom := idByKey[tc.From]
		to, okTo := idByKey[tc.To]

		if !okFrom || !okTo {
			continue
		}

		workflow.Connections = append(workflow.Connections, &models.Connection{
			ID:        uuid.New().String(),
			From:      from,
			To:        to,
			Type:      tc.Type,
			Condition: tc.Condition,
		})
	}

	return workflow, true
}

// LoadDeployment instantiates a new deployment from a template.
func (l *Library) LoadDeployment(templateID string) (*models.Deployment, bool) {
	template, ok := l.deployments[templateID]
	if !ok {
		return nil, false
	}

	now := time.Now().UTC()
	deployment := &models.Deployment{
		ID:          uuid.New().String(),
		Name:        template.Name,
		Environment: template.Environment,
		Version:     template.Version,
		Status:      models.DeploymentStatusPending,
		Stages:      make([]*models.PipelineStage, 0, len(template.Stages)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, ts := range template.Stages {
		script := make([]string, len(ts.Script))
		copy(script, ts.Script)

		deployment.Stages = append(deployment.Stages, &models.PipelineStage{
			ID:     uuid.New().String(),
			Name:   ts.Name,
			Status: models.StageStatusPending,
			Script: script,
		})
	}

	return deployment, true
}
