package canvas

import (
	"math"
	"strings"

	"callflow/internal/graph"

	"github.com/mattn/go-runewidth"
)

// Class tags a cell so a Styler can color it.
type Class int

const (
	ClassBlank Class = iota
	ClassEdge
	ClassArrow
	ClassNode
	ClassSelected
	ClassButton
	ClassMenu
	ClassMenuActive
)

// Styler decorates a run of cells sharing a class and node type.
type Styler func(class Class, t graph.NodeType, text string) string

// Plain renders text unstyled.
func Plain(_ Class, _ graph.NodeType, text string) string { return text }

// Viewport maps pixel space onto a grid of terminal cells.
type Viewport struct {
	Cols, Rows            int
	CellWidth, CellHeight float64
	// Origin is the pixel position shown in the top-left cell.
	Origin graph.Position
}

// NewViewport returns a viewport of cols x rows cells with 10x20 pixel cells.
func NewViewport(cols, rows int) Viewport {
	return Viewport{Cols: cols, Rows: rows, CellWidth: 10, CellHeight: 20}
}

// farCell bounds cell coordinates so that positions far off the canvas stay
// off it without overflowing int arithmetic.
const farCell = 1 << 28

// Cell returns the cell containing p. Coordinates are clamped to
// [-farCell, farCell]; a NaN coordinate maps to -farCell.
func (v Viewport) Cell(p graph.Position) (col, row int) {
	return cellIndex((p.X - v.Origin.X) / v.CellWidth), cellIndex((p.Y - v.Origin.Y) / v.CellHeight)
}

func cellIndex(f float64) int {
	switch {
	case math.IsNaN(f), f <= -farCell:
		return -farCell
	case f >= farCell:
		return farCell
	}
	return int(math.Floor(f))
}

// Point returns the pixel position at the center of a cell.
func (v Viewport) Point(col, row int) graph.Position {
	return graph.Position{
		X: v.Origin.X + (float64(col)+0.5)*v.CellWidth,
		Y: v.Origin.Y + (float64(row)+0.5)*v.CellHeight,
	}
}

// Bounds is the visible area in pixel space.
func (v Viewport) Bounds() Rect {
	return Rect{X: v.Origin.X, Y: v.Origin.Y, W: float64(v.Cols) * v.CellWidth, H: float64(v.Rows) * v.CellHeight}
}

// Pan shifts the visible area by whole cells.
func (v Viewport) Pan(dcols, drows int) Viewport {
	v.Origin.X += float64(dcols) * v.CellWidth
	v.Origin.Y += float64(drows) * v.CellHeight
	return v
}

// MenuView is an open insertion menu as the rasterizer sees it.
type MenuView struct {
	Rect      Rect
	Items     []graph.TypeSpec
	Highlight int
}

// Scene is everything drawn in one frame.
type Scene struct {
	Nodes    []graph.Node
	Selected string
	Menu     *MenuView
	Metrics  Metrics
}

// Summary is the second line shown inside a node box.
func Summary(n graph.Node) string {
	switch d := n.Data.(type) {
	case graph.SubagentData:
		return d.SelectedAgent
	case graph.ConditionData:
		return d.Expression
	case graph.ToolData:
		return d.Name
	case graph.TransferData:
		return d.SelectedAgent
	case graph.PhoneTransferData:
		if d.PhoneNumber == "" {
			return ""
		}
		return d.CountryCode + " " + d.PhoneNumber
	case graph.EndData:
		return d.Message
	}
	return ""
}

const (
	lineN uint8 = 1 << iota
	lineS
	lineE
	lineW
)

var lineGlyphs = map[uint8]rune{
	0:                             '│',
	lineN:                         '│',
	lineS:                         '│',
	lineN | lineS:                 '│',
	lineE:                         '─',
	lineW:                         '─',
	lineE | lineW:                 '─',
	lineS | lineE:                 '┌',
	lineS | lineW:                 '┐',
	lineN | lineE:                 '└',
	lineN | lineW:                 '┘',
	lineN | lineS | lineE:         '├',
	lineN | lineS | lineW:         '┤',
	lineS | lineE | lineW:         '┬',
	lineN | lineE | lineW:         '┴',
	lineN | lineS | lineE | lineW: '┼',
}

type boxStyle struct{ tl, tr, bl, br, h, v rune }

var (
	roundBox = boxStyle{'╭', '╮', '╰', '╯', '─', '│'}
	heavyBox = boxStyle{'┏', '┓', '┗', '┛', '━', '┃'}
)

type cell struct {
	r     rune
	class Class
	typ   graph.NodeType
	lines uint8
	// cont marks the right half of a double-width rune.
	cont bool
}

type raster struct {
	v     Viewport
	cells []cell
}

func newRaster(v Viewport) *raster {
	r := &raster{v: v, cells: make([]cell, v.Cols*v.Rows)}
	for i := range r.cells {
		r.cells[i].r = ' '
	}
	return r
}

func (r *raster) in(col, row int) bool {
	return col >= 0 && col < r.v.Cols && row >= 0 && row < r.v.Rows
}

func (r *raster) at(col, row int) *cell {
	return &r.cells[row*r.v.Cols+col]
}

// put writes a single-width rune, repairing any wide rune it splits.
func (r *raster) put(col, row int, ch rune, class Class, t graph.NodeType) {
	if !r.in(col, row) {
		return
	}
	c := r.at(col, row)
	if c.cont && col > 0 {
		r.at(col-1, row).r = ' '
	}
	if col+1 < r.v.Cols && r.at(col+1, row).cont {
		next := r.at(col+1, row)
		next.cont = false
		next.r = ' '
	}
	*c = cell{r: ch, class: class, typ: t}
}

// text writes s starting at col, clipped to width columns.
func (r *raster) text(col, row, width int, s string, class Class, t graph.NodeType) {
	if width <= 0 {
		return
	}
	s = runewidth.Truncate(s, width, "…")
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		switch {
		case w == 1:
			r.put(col, row, ch, class, t)
		case r.in(col, row) && r.in(col+1, row):
			r.put(col+1, row, ' ', class, t)
			r.put(col, row, ch, class, t)
			r.at(col+1, row).cont = true
		default:
			// a wide rune cut by the viewport edge becomes blanks
			r.put(col, row, ' ', class, t)
			r.put(col+1, row, ' ', class, t)
		}
		col += w
	}
}

func (r *raster) line(col, row int, bits uint8) {
	if !r.in(col, row) {
		return
	}
	c := r.at(col, row)
	if c.class != ClassEdge {
		r.put(col, row, ' ', ClassEdge, "")
	}
	c.lines |= bits
	c.r = lineGlyphs[c.lines]
}

// vline and hline only visit cells inside the viewport; the line bits still
// follow the full, unclipped line.
func (r *raster) vline(col, r0, r1 int) {
	if col < 0 || col >= r.v.Cols {
		return
	}
	lo, hi := min(r0, r1), max(r0, r1)
	for row := max(lo, 0); row <= min(hi, r.v.Rows-1); row++ {
		var bits uint8
		if row > lo {
			bits |= lineN
		}
		if row < hi {
			bits |= lineS
		}
		r.line(col, row, bits)
	}
}

func (r *raster) hline(row, c0, c1 int) {
	if row < 0 || row >= r.v.Rows {
		return
	}
	lo, hi := min(c0, c1), max(c0, c1)
	for col := max(lo, 0); col <= min(hi, r.v.Cols-1); col++ {
		var bits uint8
		if col > lo {
			bits |= lineW
		}
		if col < hi {
			bits |= lineE
		}
		r.line(col, row, bits)
	}
}

// edge routes a connection orthogonally: down from the source, across at the
// midpoint, then down into the target with an arrowhead above its top border.
func (r *raster) edge(s Segment) {
	sc, sr := r.v.Cell(s.Start)
	tc, tr := r.v.Cell(s.End)
	end := tr - 1

	r.line(sc, sr, lineN)
	if sc == tc {
		r.vline(sc, sr, end)
	} else {
		mid := sr + (end-sr)/2
		r.vline(sc, sr, mid)
		r.hline(mid, sc, tc)
		r.vline(tc, mid, end)
	}
	r.put(tc, end, '▼', ClassArrow, "")
}

func (r *raster) box(col, row, w, h int, bs boxStyle, class Class, t graph.NodeType) {
	if w < 2 || h < 2 {
		return
	}
	for y := max(row, 0); y < min(row+h, r.v.Rows); y++ {
		for x := max(col, 0); x < min(col+w, r.v.Cols); x++ {
			ch := ' '
			switch {
			case y == row && x == col:
				ch = bs.tl
			case y == row && x == col+w-1:
				ch = bs.tr
			case y == row+h-1 && x == col:
				ch = bs.bl
			case y == row+h-1 && x == col+w-1:
				ch = bs.br
			case y == row || y == row+h-1:
				ch = bs.h
			case x == col || x == col+w-1:
				ch = bs.v
			}
			r.put(x, y, ch, class, t)
		}
	}
}

// span converts a pixel length to a whole number of cells.
func span(px, unit float64) int {
	return max(1, int(math.Round(px/unit)))
}

func (r *raster) node(n graph.Node, m Metrics, selected bool) {
	col, row := r.v.Cell(n.Position)
	w := span(m.NodeWidth, r.v.CellWidth)
	h := span(m.NodeHeight, r.v.CellHeight)

	bs, class := roundBox, ClassNode
	if selected {
		bs, class = heavyBox, ClassSelected
	}
	r.box(col, row, w, h, bs, class, n.Type)

	icon := ""
	if spec, ok := graph.Lookup(n.Type); ok {
		icon = spec.Icon + " "
	}
	inner := w - 4
	if h > 2 {
		r.text(col+2, row+1, inner, icon+n.Label(), class, n.Type)
	}
	if h > 3 {
		r.text(col+2, row+2, inner, Summary(n), class, n.Type)
	}

	if HasAddButton(n) {
		b := AddButtonRect(n, m)
		bc, br := r.v.Cell(graph.Position{X: b.X + b.W/2, Y: b.Y + b.H/2})
		r.put(bc, br, '+', ClassButton, n.Type)
	}
}

func (r *raster) menu(mv *MenuView) {
	col, row := r.v.Cell(graph.Position{X: mv.Rect.X, Y: mv.Rect.Y})
	w := span(mv.Rect.W, r.v.CellWidth)
	h := len(mv.Items) + 2
	r.box(col, row, w, h, roundBox, ClassMenu, "")
	for i, spec := range mv.Items {
		class := ClassMenu
		if i == mv.Highlight {
			class = ClassMenuActive
		}
		for x := col + 1; x < col+w-1; x++ {
			r.put(x, row+1+i, ' ', class, spec.Type)
		}
		r.text(col+2, row+1+i, w-4, spec.Icon+" "+spec.Label, class, spec.Type)
	}
}

func (r *raster) String(style Styler) string {
	var out strings.Builder
	for row := 0; row < r.v.Rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var cur cell
		flush := func() {
			if run.Len() > 0 {
				out.WriteString(style(cur.class, cur.typ, run.String()))
				run.Reset()
			}
		}
		for col := 0; col < r.v.Cols; col++ {
			c := *r.at(col, row)
			if c.cont {
				continue
			}
			if run.Len() > 0 && (c.class != cur.class || c.typ != cur.typ) {
				flush()
			}
			cur = c
			run.WriteRune(c.r)
		}
		flush()
	}
	return out.String()
}

// Render draws the scene into v. Connections are drawn first, then nodes in
// order so later nodes cover earlier ones, then the menu on top.
func Render(s Scene, v Viewport, style Styler) string {
	if v.Cols <= 0 || v.Rows <= 0 {
		return ""
	}
	if style == nil {
		style = Plain
	}
	r := newRaster(v)
	for _, seg := range Edges(s.Nodes, s.Metrics) {
		r.edge(seg)
	}
	for _, n := range s.Nodes {
		r.node(n, s.Metrics, n.ID == s.Selected)
	}
	if s.Menu != nil {
		r.menu(s.Menu)
	}
	return r.String(style)
}

// Largest grid Fit returns. Beyond it the view starts at the top-left of the
// graph and the rest is reached by panning.
const (
	MaxFitCols = 400
	MaxFitRows = 200
)

// Fit returns a viewport that shows every node and its "+" affordance with a
// one cell margin, up to MaxFitCols x MaxFitRows. An empty graph yields a
// single blank cell.
func Fit(nodes []graph.Node, m Metrics, cellWidth, cellHeight float64) Viewport {
	v := Viewport{Cols: 1, Rows: 1, CellWidth: cellWidth, CellHeight: cellHeight}
	if cellWidth <= 0 || cellHeight <= 0 {
		return v
	}
	var bounds Rect
	found := false
	for _, n := range nodes {
		// nodes at NaN or infinite positions cannot be shown anywhere
		if !finite(n.Position.X) || !finite(n.Position.Y) {
			continue
		}
		r := NodeRect(n, m)
		if HasAddButton(n) {
			b := AddButtonRect(n, m)
			r.H = b.Bottom() - r.Y
		}
		if !found {
			bounds, found = r, true
			continue
		}
		bounds = union(bounds, r)
	}
	if !found {
		return v
	}
	v.Origin = graph.Position{X: bounds.X - cellWidth, Y: bounds.Y - cellHeight}
	v.Cols = min(cellIndex(math.Ceil(bounds.W/cellWidth))+2, MaxFitCols)
	v.Rows = min(cellIndex(math.Ceil(bounds.H/cellHeight))+2, MaxFitRows)
	return v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func union(a, b Rect) Rect {
	x0, y0 := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	x1, y1 := math.Max(a.Right(), b.Right()), math.Max(a.Bottom(), b.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
