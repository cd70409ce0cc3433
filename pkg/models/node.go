package models

import "time"

// Position is a point in graph (canvas) coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeStatus defines the execution states of a graph node. It is run-time
// state only and is reset at the start of every execution.
type NodeStatus string

const (
	NodeStatusIdle      NodeStatus = "idle"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusError     NodeStatus = "error"
)

// Config keys every node carries regardless of kind.
const (
	ConfigKeyName    = "name"
	ConfigKeyEnabled = "enabled"
)

// Node is a node instance in a workflow graph. Kind references the node
// catalog; a node is never created with a kind the catalog does not know.
type Node struct {
	ID            string         `json:"id"       validate:"required"`
	Kind          string         `json:"kind"     validate:"required"`
	Position      Position       `json:"position"`
	Config        map[string]any `json:"config"`
	Status        NodeStatus     `json:"status"`
	ExecutionTime *time.Duration `json:"execution_time,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Name returns the node's display name from its config.
func (n *Node) Name() string {
	name, _ := n.Config[ConfigKeyName].(string)

	return name
}

// Enabled reports whether the node participates in future runs.
func (n *Node) Enabled() bool {
	enabled, _ := n.Config[ConfigKeyEnabled].(bool)

	return enabled
}

// ConnectionType classifies the edge between two nodes.
type ConnectionType string

const (
	ConnectionTypeSuccess   ConnectionType = "success"
	ConnectionTypeError     ConnectionType = "error"
	ConnectionTypeCondition ConnectionType = "condition"
)

// Connection is a directed edge between two nodes of the same graph.
// Condition carries the branch label and is required for condition edges.
type Connection struct {
	ID        string         `json:"id"                  validate:"required"`
	From      string         `json:"from"                validate:"required"`
	To        string         `json:"to"                  validate:"required"`
	Type      ConnectionType `json:"type"                validate:"required"`
	Condition string         `json:"condition,omitempty"`
}
