// Package graph holds the mutable node graph of one workflow and its
// structural mutation primitives. The graph enforces referential integrity
// (no connection ever points at a missing node) but deliberately does not
// validate acyclicity: retry-loop templates wire cycles on purpose.
package graph

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/catalog"
	"github.com/flowcanvas/flowcanvas/pkg/models"
)

// EventKind identifies a structural change.
type EventKind string

const (
	EventNodeAdded         EventKind = "node.added"
	EventNodeRemoved       EventKind = "node.removed"
	EventNodeMoved         EventKind = "node.moved"
	EventNodeUpdated       EventKind = "node.updated"
	EventConnectionAdded   EventKind = "connection.added"
	EventConnectionRemoved EventKind = "connection.removed"
)

// Event notifies subscribers of a single structural mutation.
type Event struct {
	Kind         EventKind
	NodeID       string
	ConnectionID string
}

// Graph owns the nodes and connections of one workflow. All mutation paths
// go through it so the no-dangling-edges invariant holds after any call
// sequence.
type Graph struct {
	mu          sync.RWMutex
	catalog     *catalog.Catalog
	nodes       map[string]*models.Node
	order       []string
	connections []*models.Connection
	subscribers []func(Event)
}

func New(cat *catalog.Catalog) *Graph {
	return &Graph{
		catalog:     cat,
		nodes:       make(map[string]*models.Node),
		order:       make([]string, 0),
		connections: make([]*models.Connection, 0),
	}
}

// Subscribe registers a callback invoked after every committed mutation.
// Callbacks run synchronously on the mutating goroutine.
func (g *Graph) Subscribe(fn func(Event)) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.subscribers = append(g.subscribers, fn)
}

func (g *Graph) notify(event Event) {
	for _, fn := range g.subscribers {
		fn(event)
	}
}

// AddNode creates a node of the given kind at the given position. Unknown
// kinds are rejected: no node is created and ok is false.
func (g *Graph) AddNode(kind string, position models.Position) (*models.Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kindMeta, ok := g.catalog.Get(kind)
	if !ok {
		return nil, false
	}

	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     kind,
		Position: position,
		Config: map[string]any{
			models.ConfigKeyName:    kindMeta.Label,
			models.ConfigKeyEnabled: true,
		},
		Status: models.NodeStatusIdle,
	}

	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	g.notify(Event{Kind: EventNodeAdded, NodeID: node.ID})

	return node, true
}

// RemoveNode deletes a node and cascades to every connection touching it.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return false
	}

	delete(g.nodes, id)

	for i, nodeID := range g.order {
		if nodeID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)

			break
		}
	}

	kept := g.connections[:0]

	for _, conn := range g.connections {
		if conn.From == id || conn.To == id {
			g.notify(Event{Kind: EventConnectionRemoved, ConnectionID: conn.ID})

			continue
		}

		kept = append(kept, conn)
	}

	g.connections = kept
	g.notify(Event{Kind: EventNodeRemoved, NodeID: id})

	return true
}

// Connect adds a directed edge. The call is a no-op when either endpoint is
// missing, or when a condition edge carries no condition label. Self-loops,
// cycles, and duplicate edges are permitted.
func (g *Graph) Connect(from, to string, connType models.ConnectionType, condition string) (*models.Connection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[from]; !ok {
		return nil, false
	}

	if _, ok := g.nodes[to]; !ok {
		return nil, false
	}

	if connType == models.ConnectionTypeCondition && condition == "" {
		return nil, false
	}

	conn := &models.Connection{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Type:      connType,
		Condition: condition,
	}

	g.connections = append(g.connections, conn)
	g.notify(Event{Kind: EventConnectionAdded, ConnectionID: conn.ID})

	return conn, true
}

// RemoveConnection deletes a single edge by id.
func (g *Graph) RemoveConnection(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, conn := range g.connections {
		if conn.ID == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			g.notify(Event{Kind: EventConnectionRemoved, ConnectionID: id})

			return true
		}
	}

	return false
}

// MoveNode updates a node's canvas position. Unknown ids are a no-op.
func (g *Graph) MoveNode(id string, position models.Position) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return false
	}

	node.Position = position
	g.notify(Event{Kind: EventNodeMoved, NodeID: id})

	return true
}

// Node returns a node by id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]

	return node, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*models.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*models.Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}

	return nodes
}

// Connections returns all edges in creation order.
func (g *Graph) Connections() []*models.Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	conns := make([]*models.Connection, len(g.connections))
	copy(conns, g.connections)

	return conns
}

// Connection returns an edge by id.
func (g *Graph) Connection(id string) (*models.Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, conn := range g.connections {
		if conn.ID == id {
			return conn, true
		}
	}

	return nil, false
}

// Load replaces the graph contents with a workflow's nodes and connections.
// Connections referencing unknown nodes are dropped so the invariant holds
// even for hand-edited input.
func (g *Graph) Load(workflow *models.Workflow) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*models.Node, len(workflow.Nodes))
	g.order = make([]string, 0, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		g.nodes[node.ID] = node
		g.order = append(g.order, node.ID)
	}

	g.connections = make([]*models.Connection, 0, len(workflow.Connections))

	for _, conn := range workflow.Connections {
		if _, ok := g.nodes[conn.From]; !ok {
			continue
		}

		if _, ok := g.nodes[conn.To]; !ok {
			continue
		}

		g.connections = append(g.connections, conn)
	}
}

// Apply writes the graph contents back onto a workflow aggregate.
func (g *Graph) Apply(workflow *models.Workflow) {
	workflow.Nodes = g.Nodes()
	workflow.Connections = g.Connections()
}

// Validate checks a submitted topology against the same rules the graph
// enforces on mutation: known node kinds, no dangling connection endpoints,
// and a condition label on every condition edge. Unlike Load it rejects bad
// input instead of silently dropping it, so callers accepting external
// payloads can surface the problem.
func Validate(cat *catalog.Catalog, nodes []*models.Node, connections []*models.Connection) error {
	seen := make(map[string]struct{}, len(nodes))

	for _, node := range nodes {
		if _, ok := cat.Get(node.Kind); !ok {
			return fmt.Errorf("node %s: unknown kind %q", node.ID, node.Kind)
		}

		if _, ok := seen[node.ID]; ok {
			return fmt.Errorf("node %s: duplicate id", node.ID)
		}

		seen[node.ID] = struct{}{}
	}

	for _, conn := range connections {
		if _, ok := seen[conn.From]; !ok {
			return fmt.Errorf("connection %s: unknown source node %s", conn.ID, conn.From)
		}

		if _, ok := seen[conn.To]; !ok {
			return fmt.Errorf("connection %s: unknown target node %s", conn.ID, conn.To)
		}

		if conn.Type == models.ConnectionTypeCondition && conn.Condition == "" {
			return fmt.Errorf("connection %s: condition edge without a condition label", conn.ID)
		}
	}

	return nil
}
