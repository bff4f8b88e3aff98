// Package editor turns pointer and keyboard input into graph store mutations.
// It owns the interaction state of one open call flow: the drag state
// machine, the selected node and the insertion menu.
package editor

import (
	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/pkg/logging"
)

const subsystem = "Editor"

// DragState is the pointer interaction state. It is one of Idle, Dragging or
// BackgroundPress.
type DragState interface {
	dragState()
}

// Idle means no button is held.
type Idle struct{}

// Dragging means a node was pressed. Offset is pointer minus node origin at
// press time. Moved turns true on the first motion event.
type Dragging struct {
	NodeID string
	Offset graph.Position
	Moved  bool
}

// BackgroundPress means the button went down over empty canvas.
type BackgroundPress struct{}

func (Idle) dragState()            {}
func (Dragging) dragState()        {}
func (BackgroundPress) dragState() {}

// Action tells the caller what a pointer event did.
type Action int

const (
	ActionNone Action = iota
	ActionSelected
	ActionCleared
	ActionMoved
	ActionMenuOpened
	ActionNodeAdded
)

// Result is returned from every pointer event.
type Result struct {
	Action Action
	NodeID string
}

// Editor is not safe for concurrent use; it lives inside the UI update loop.
type Editor struct {
	store    *graph.Store
	metrics  canvas.Metrics
	viewport canvas.Rect

	drag     DragState
	selected string
	menu     Menu
	dirty    bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithMetrics overrides the node footprint used for hit-testing.
func WithMetrics(m canvas.Metrics) Option {
	return func(e *Editor) { e.metrics = m }
}

// New wraps store. The store stays the single owner of nodes.
func New(store *graph.Store, opts ...Option) *Editor {
	e := &Editor{
		store:   store,
		metrics: canvas.DefaultMetrics(),
		drag:    Idle{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) Store() *graph.Store     { return e.store }
func (e *Editor) Metrics() canvas.Metrics { return e.metrics }
func (e *Editor) Drag() DragState         { return e.drag }

// IsDragging reports whether pointer motion should currently be delivered.
func (e *Editor) IsDragging() bool {
	_, ok := e.drag.(Dragging)
	return ok
}

// SetViewport sets the visible pixel area used to keep the menu on screen.
func (e *Editor) SetViewport(r canvas.Rect) {
	e.viewport = r
}

// Dirty reports whether the graph changed since the last MarkSaved.
func (e *Editor) Dirty() bool { return e.dirty }
func (e *Editor) MarkSaved()  { e.dirty = false }

// Replace swaps in a different store, for example after the file changed on
// disk. Interaction state is reset.
func (e *Editor) Replace(store *graph.Store) {
	e.store = store
	e.drag = Idle{}
	e.selected = ""
	e.menu = Menu{}
	e.dirty = false
}

// PointerDown handles a button press at p in canvas pixel space.
func (e *Editor) PointerDown(p graph.Position) Result {
	if e.menu.Open {
		items := e.MenuItems()
		if i := canvas.MenuItemAt(e.menu.Rect, len(items), e.metrics, p); i >= 0 {
			e.drag = Idle{}
			n, ok := e.ChooseType(items[i].Type)
			if !ok {
				return Result{}
			}
			return Result{Action: ActionNodeAdded, NodeID: n.ID}
		}
		if e.menu.Rect.Contains(p) {
			e.drag = Idle{}
			return Result{}
		}
	}

	hit := canvas.HitTest(e.store.Nodes(), e.metrics, p)
	switch hit.Kind {
	case canvas.HitAddButton:
		e.drag = Idle{}
		if e.OpenMenu(hit.NodeID) {
			return Result{Action: ActionMenuOpened, NodeID: hit.NodeID}
		}
	case canvas.HitNode:
		n, _ := e.store.Node(hit.NodeID)
		e.drag = Dragging{NodeID: n.ID, Offset: p.Sub(n.Position)}
	default:
		e.drag = BackgroundPress{}
	}
	return Result{}
}

// PointerMove moves the dragged node so that the press offset is preserved.
// Motion in any other state is ignored.
func (e *Editor) PointerMove(p graph.Position) Result {
	d, ok := e.drag.(Dragging)
	if !ok {
		return Result{}
	}
	pos := p.Sub(d.Offset)
	if !e.store.SetNodePosition(d.NodeID, pos.X, pos.Y) {
		// the node vanished mid-drag, e.g. deleted through another surface
		e.drag = Idle{}
		return Result{}
	}
	d.Moved = true
	e.drag = d
	e.dirty = true
	return Result{Action: ActionMoved, NodeID: d.NodeID}
}

// PointerUp ends the interaction. A press and release without motion is a
// click: on a node it selects the node, on the background it clears the
// selection and closes the menu.
func (e *Editor) PointerUp(graph.Position) Result {
	state := e.drag
	e.drag = Idle{}

	switch s := state.(type) {
	case Dragging:
		if s.Moved {
			logging.Debug(subsystem, "moved %s", s.NodeID)
			return Result{Action: ActionMoved, NodeID: s.NodeID}
		}
		e.Select(s.NodeID)
		return Result{Action: ActionSelected, NodeID: s.NodeID}
	case BackgroundPress:
		e.ClearSelection()
		e.CloseMenu()
		return Result{Action: ActionCleared}
	}
	return Result{}
}

// Selected returns the selected node id, or "" when nothing is selected.
func (e *Editor) Selected() string { return e.selected }

// SelectedNode returns the selected node if it still exists.
func (e *Editor) SelectedNode() (graph.Node, bool) {
	if e.selected == "" {
		return graph.Node{}, false
	}
	return e.store.Node(e.selected)
}

// Select marks id as selected. Unknown ids are ignored.
func (e *Editor) Select(id string) bool {
	if _, ok := e.store.Node(id); !ok {
		return false
	}
	e.selected = id
	return true
}

func (e *Editor) ClearSelection() { e.selected = "" }

// SelectNext cycles the selection through nodes in draw order.
func (e *Editor) SelectNext(step int) {
	nodes := e.store.Nodes()
	if len(nodes) == 0 {
		return
	}
	cur := -1
	for i, n := range nodes {
		if n.ID == e.selected {
			cur = i
			break
		}
	}
	next := 0
	if cur >= 0 {
		next = ((cur+step)%len(nodes) + len(nodes)) % len(nodes)
	}
	e.selected = nodes[next].ID
}

// Nudge moves the selected node by d.
func (e *Editor) Nudge(d graph.Position) bool {
	n, ok := e.SelectedNode()
	if !ok {
		return false
	}
	pos := n.Position.Add(d)
	e.store.SetNodePosition(n.ID, pos.X, pos.Y)
	e.dirty = true
	return true
}

// DeleteNode deletes id, clearing the selection and closing the menu when
// they referred to it. The start node is ignored.
func (e *Editor) DeleteNode(id string) bool {
	if !e.store.DeleteNode(id) {
		return false
	}
	if e.selected == id {
		e.selected = ""
	}
	if e.menu.Open && e.menu.SourceID == id {
		e.CloseMenu()
	}
	if d, ok := e.drag.(Dragging); ok && d.NodeID == id {
		e.drag = Idle{}
	}
	e.dirty = true
	return true
}

func (e *Editor) DeleteSelected() bool {
	return e.DeleteNode(e.selected)
}

// DuplicateSelected copies the selected node and selects the copy.
func (e *Editor) DuplicateSelected() (graph.Node, bool) {
	n, ok := e.store.DuplicateNode(e.selected)
	if !ok {
		return graph.Node{}, false
	}
	e.selected = n.ID
	e.dirty = true
	return n, true
}
