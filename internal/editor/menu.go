package editor

import (
	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/pkg/logging"
)

// Menu is the insertion menu. The zero value is closed.
type Menu struct {
	Open     bool
	SourceID string
	// Anchor is the rectangle of the source node's "+" affordance.
	Anchor    canvas.Rect
	Rect      canvas.Rect
	Highlight int
}

// Menu returns the current menu state.
func (e *Editor) Menu() Menu { return e.menu }

// MenuItems lists the node types the menu offers.
func (e *Editor) MenuItems() []graph.TypeSpec {
	return graph.MenuTypes()
}

// OpenMenu opens the insertion menu for sourceID, replacing any open menu.
// Terminal and unknown nodes get no menu.
func (e *Editor) OpenMenu(sourceID string) bool {
	n, ok := e.store.Node(sourceID)
	if !ok || !canvas.HasAddButton(n) {
		return false
	}
	anchor := canvas.AddButtonRect(n, e.metrics)
	e.menu = Menu{
		Open:     true,
		SourceID: sourceID,
		Anchor:   anchor,
		Rect:     canvas.MenuRect(anchor, len(e.MenuItems()), e.metrics, e.viewport),
	}
	return true
}

// OpenMenuForSelected opens the menu on the selected node.
func (e *Editor) OpenMenuForSelected() bool {
	return e.OpenMenu(e.selected)
}

func (e *Editor) CloseMenu() {
	e.menu = Menu{}
}

// MoveHighlight moves the keyboard highlight, wrapping at both ends.
func (e *Editor) MoveHighlight(step int) {
	if !e.menu.Open {
		return
	}
	n := len(e.MenuItems())
	if n == 0 {
		return
	}
	e.menu.Highlight = ((e.menu.Highlight+step)%n + n) % n
}

// ChooseHighlighted picks the highlighted item.
func (e *Editor) ChooseHighlighted() (graph.Node, bool) {
	items := e.MenuItems()
	if !e.menu.Open || e.menu.Highlight < 0 || e.menu.Highlight >= len(items) {
		return graph.Node{}, false
	}
	return e.ChooseType(items[e.menu.Highlight].Type)
}

// ChooseType adds a node of type t below the menu's source, closes the menu
// and selects the new node.
func (e *Editor) ChooseType(t graph.NodeType) (graph.Node, bool) {
	if !e.menu.Open {
		return graph.Node{}, false
	}
	source := e.menu.SourceID
	e.CloseMenu()

	n, ok := e.store.AddNode(t, source)
	if !ok {
		logging.Warn(subsystem, "could not add %s below %s", t, source)
		return graph.Node{}, false
	}
	e.selected = n.ID
	e.dirty = true
	return n, true
}
