// Package editor is the single source of truth for the current selection and
// the mediator for all property edits on a workflow graph. Execution-time
// fields (status, progress, logs) belong to the engine and are never written
// here.
package editor

import (
	"sync"

	"github.com/flowcanvas/flowcanvas/pkg/catalog"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/models"
)

// SelectionKind says which category of entity is selected. Selection is
// mutually exclusive across categories.
type SelectionKind string

const (
	SelectionNone       SelectionKind = ""
	SelectionNode       SelectionKind = "node"
	SelectionConnection SelectionKind = "connection"
	SelectionStage      SelectionKind = "stage"
)

// ExecutionGuard reports whether a run currently owns the workflow's
// execution state. Property edits are rejected while it does.
type ExecutionGuard interface {
	IsExecuting() bool
}

// Controller tracks the selection and mediates edits against the graph.
type Controller struct {
	mu      sync.Mutex
	graph   *graph.Graph
	catalog *catalog.Catalog
	guard   ExecutionGuard

	selectionKind SelectionKind
	selectionID   string
}

// NewController wires a controller to a graph and its node catalog. guard may
// be nil when no engine is attached (edits are then always allowed).
func NewController(g *graph.Graph, cat *catalog.Catalog, guard ExecutionGuard) *Controller {
	c := &Controller{graph: g, catalog: cat, guard: guard}

	// Removing the selected entity clears the selection.
	g.Subscribe(func(event graph.Event) {
		switch event.Kind {
		case graph.EventNodeRemoved:
			c.clearIf(SelectionNode, event.NodeID)
		case graph.EventConnectionRemoved:
			c.clearIf(SelectionConnection, event.ConnectionID)
		default:
		}
	})

	return c
}

func (c *Controller) clearIf(kind SelectionKind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectionKind == kind && c.selectionID == id {
		c.selectionKind = SelectionNone
		c.selectionID = ""
	}
}

// Selection returns the current selection. Kind is SelectionNone when
// nothing is selected.
func (c *Controller) Selection() (SelectionKind, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selectionKind, c.selectionID
}

// SelectNode selects a node, replacing any prior selection. Selecting the
// same id twice is idempotent. Unknown ids leave the selection unchanged.
func (c *Controller) SelectNode(id string) bool {
	if _, ok := c.graph.Node(id); !ok {
		return false
	}

	c.set(SelectionNode, id)

	return true
}

// SelectConnection selects an edge, replacing any prior selection.
func (c *Controller) SelectConnection(id string) bool {
	if _, ok := c.graph.Connection(id); !ok {
		return false
	}

	c.set(SelectionConnection, id)

	return true
}

// SelectStage selects a pipeline stage by id. Stages live outside the graph,
// so existence is the caller's concern.
func (c *Controller) SelectStage(id string) {
	c.set(SelectionStage, id)
}

// Clear drops the selection.
func (c *Controller) Clear() {
	c.set(SelectionNone, "")
}

func (c *Controller) set(kind SelectionKind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectionKind = kind
	c.selectionID = id
}

// UpdateConfig merges patch into a node's config. The edit is rejected (a
// no-op returning false) when the node does not exist, when a run is in
// progress, or when the merged config fails the kind's schema.
func (c *Controller) UpdateConfig(nodeID string, patch map[string]any) bool {
	if c.executing() {
		return false
	}

	node, ok := c.graph.Node(nodeID)
	if !ok {
		return false
	}

	merged := make(map[string]any, len(node.Config)+len(patch))

	for k, v := range node.Config {
		merged[k] = v
	}

	for k, v := range patch {
		merged[k] = v
	}

	if err := c.catalog.ValidateConfig(node.Kind, merged); err != nil {
		return false
	}

	node.Config = merged

	return true
}

// ToggleEnabled flips a node's enabled flag. It only affects future runs;
// the engine's current run is untouched.
func (c *Controller) ToggleEnabled(nodeID string) bool {
	node, ok := c.graph.Node(nodeID)
	if !ok {
		return false
	}

	node.Config[models.ConfigKeyEnabled] = !node.Enabled()

	return true
}

// AddNode, RemoveNode, Connect, and MoveNode pass through to the graph so UI
// layers have one mutation surface.

func (c *Controller) AddNode(kind string, position models.Position) (*models.Node, bool) {
	return c.graph.AddNode(kind, position)
}

func (c *Controller) RemoveNode(id string) bool {
	return c.graph.RemoveNode(id)
}

func (c *Controller) Connect(from, to string, connType models.ConnectionType, condition string) (*models.Connection, bool) {
	return c.graph.Connect(from, to, connType, condition)
}

func (c *Controller) MoveNode(id string, position models.Position) bool {
	return c.graph.MoveNode(id, position)
}

func (c *Controller) executing() bool {
	return c.guard != nil && c.guard.IsExecuting()
}
