package graph

import (
	"errors"
	"math"
)

// NodeType identifies one of the closed set of call-flow node kinds.
type NodeType string

const (
	TypeStart         NodeType = "start"
	TypeSubagent      NodeType = "subagent"
	TypeCondition     NodeType = "condition"
	TypeTool          NodeType = "tool"
	TypeTransfer      NodeType = "transfer"
	TypePhoneTransfer NodeType = "phone_transfer"
	TypeEnd           NodeType = "end"
)

// StartID is the id of the node seeded into every new store.
const StartID = "start"

var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrStartProtected  = errors.New("start node cannot be modified this way")
	ErrUnknownType     = errors.New("unknown node type")
	ErrDuplicateEdge   = errors.New("connection already exists")
	ErrPayloadMismatch = errors.New("payload does not match node type")
	ErrUnknownField    = errors.New("unknown field")
	ErrTerminalSource  = errors.New("nothing can follow a terminal node")
	ErrInvalidPosition = errors.New("position must be finite")
)

// Position is a point in canvas pixel space.
type Position struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Add returns p shifted by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Finite reports whether both coordinates are real numbers.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Sub returns the vector from d to p.
func (p Position) Sub(d Position) Position {
	return Position{X: p.X - d.X, Y: p.Y - d.Y}
}

// Node is a single vertex of the call flow.
type Node struct {
	ID          string
	Type        NodeType
	Position    Position
	Data        Payload
	Connections []string
}

// Label returns the display label stored in the payload.
func (n Node) Label() string {
	if n.Data == nil {
		return string(n.Type)
	}
	return n.Data.Title()
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := n
	if n.Connections != nil {
		out.Connections = append([]string(nil), n.Connections...)
	}
	if n.Data != nil {
		out.Data = ClonePayload(n.Data)
	}
	return out
}

// HasConnection reports whether n has an outgoing edge to target.
func (n Node) HasConnection(target string) bool {
	for _, c := range n.Connections {
		if c == target {
			return true
		}
	}
	return false
}
