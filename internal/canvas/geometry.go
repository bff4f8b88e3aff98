// Package canvas holds the pixel-space geometry of a call flow (node
// footprints, connection anchors, hit-testing, menu placement) and a
// terminal rasterizer that draws it into a grid of cells.
package canvas

import "callflow/internal/graph"

// Metrics is the fixed footprint of canvas elements in pixels.
type Metrics struct {
	NodeWidth      float64 `yaml:"nodeWidth"`
	NodeHeight     float64 `yaml:"nodeHeight"`
	ButtonWidth    float64 `yaml:"buttonWidth"`
	ButtonHeight   float64 `yaml:"buttonHeight"`
	MenuWidth      float64 `yaml:"menuWidth"`
	MenuItemHeight float64 `yaml:"menuItemHeight"`
}

// DefaultMetrics matches the default 10x20 pixel terminal cell.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeWidth:      200,
		NodeHeight:     80,
		ButtonWidth:    20,
		ButtonHeight:   20,
		MenuWidth:      220,
		MenuItemHeight: 20,
	}
}

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p graph.Position) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// NodeRect is the footprint of n.
func NodeRect(n graph.Node, m Metrics) Rect {
	return Rect{X: n.Position.X, Y: n.Position.Y, W: m.NodeWidth, H: m.NodeHeight}
}

// OutAnchor is the bottom-center of n, where outgoing connections start.
func OutAnchor(n graph.Node, m Metrics) graph.Position {
	return graph.Position{X: n.Position.X + m.NodeWidth/2, Y: n.Position.Y + m.NodeHeight}
}

// InAnchor is the top-center of n, where incoming connections end.
func InAnchor(n graph.Node, m Metrics) graph.Position {
	return graph.Position{X: n.Position.X + m.NodeWidth/2, Y: n.Position.Y}
}

// AddButtonRect is the "+" affordance centered just below n.
func AddButtonRect(n graph.Node, m Metrics) Rect {
	a := OutAnchor(n, m)
	return Rect{X: a.X - m.ButtonWidth/2, Y: a.Y, W: m.ButtonWidth, H: m.ButtonHeight}
}

// HasAddButton reports whether n shows the "+" affordance.
func HasAddButton(n graph.Node) bool {
	return !graph.IsTerminal(n.Type)
}

// Segment is one drawn connection.
type Segment struct {
	From, To   string
	Start, End graph.Position
}

// Edges derives every connection from the nodes' outgoing lists. Targets that
// do not resolve to a node are skipped. The result depends only on the
// current positions, so it tracks drags without any separate refresh.
func Edges(nodes []graph.Node, m Metrics) []Segment {
	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var out []Segment
	for _, n := range nodes {
		for _, target := range n.Connections {
			t, ok := byID[target]
			if !ok {
				continue
			}
			out = append(out, Segment{
				From:  n.ID,
				To:    t.ID,
				Start: OutAnchor(n, m),
				End:   InAnchor(t, m),
			})
		}
	}
	return out
}

// HitKind says what a pointer position landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitNode
	HitAddButton
)

// Hit is the result of a hit test.
type Hit struct {
	Kind   HitKind
	NodeID string
}

// HitTest finds the topmost element under p. Later nodes are drawn on top, so
// the search runs back to front; a node's "+" affordance wins over its body.
func HitTest(nodes []graph.Node, m Metrics, p graph.Position) Hit {
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if HasAddButton(n) && AddButtonRect(n, m).Contains(p) {
			return Hit{Kind: HitAddButton, NodeID: n.ID}
		}
		if NodeRect(n, m).Contains(p) {
			return Hit{Kind: HitNode, NodeID: n.ID}
		}
	}
	return Hit{Kind: HitNone}
}
