package canvas

import "callflow/internal/graph"

// MenuRect places an insertion menu of n items next to anchor. The menu opens
// to the right of the anchor and flips left or moves up when it would leave
// the viewport. A zero-width viewport disables clamping. One item-height row
// above and below the items is reserved for the border.
func MenuRect(anchor Rect, items int, m Metrics, viewport Rect) Rect {
	r := Rect{
		X: anchor.Right(),
		Y: anchor.Y,
		W: m.MenuWidth,
		H: float64(items+2) * m.MenuItemHeight,
	}
	if viewport.W <= 0 || viewport.H <= 0 {
		return r
	}

	if r.Right() > viewport.Right() {
		r.X = anchor.X - r.W
	}
	if r.X < viewport.X {
		r.X = viewport.X
	}
	if r.Bottom() > viewport.Bottom() {
		r.Y = viewport.Bottom() - r.H
	}
	if r.Y < viewport.Y {
		r.Y = viewport.Y
	}
	return r
}

// MenuItemAt returns the index of the item under p, or -1.
func MenuItemAt(menu Rect, items int, m Metrics, p graph.Position) int {
	if !menu.Contains(p) || m.MenuItemHeight <= 0 {
		return -1
	}
	row := int((p.Y-menu.Y)/m.MenuItemHeight) - 1
	if row < 0 || row >= items {
		return -1
	}
	return row
}
