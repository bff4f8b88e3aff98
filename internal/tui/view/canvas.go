package view

import (
	"strings"

	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/internal/tui/design"
	"callflow/internal/tui/model"

	"github.com/charmbracelet/lipgloss"
)

// styleCell colors one run of canvas cells.
func styleCell(class canvas.Class, t graph.NodeType, text string) string {
	switch class {
	case canvas.ClassEdge:
		return design.EdgeStyle.Render(text)
	case canvas.ClassArrow:
		return design.ArrowStyle.Render(text)
	case canvas.ClassNode:
		return design.NodeStyle(colorKey(t), false).Render(text)
	case canvas.ClassSelected:
		return design.NodeStyle(colorKey(t), true).Render(text)
	case canvas.ClassButton:
		return design.AddButtonStyle.Render(text)
	case canvas.ClassMenu:
		return design.MenuStyle.Render(text)
	case canvas.ClassMenuActive:
		return design.MenuActiveStyle.Render(text)
	}
	return text
}

func colorKey(t graph.NodeType) string {
	spec, ok := graph.Lookup(t)
	if !ok {
		return ""
	}
	return spec.Color
}

// scene collects what the rasterizer needs from the editor state.
func scene(m *model.Model) canvas.Scene {
	s := canvas.Scene{
		Nodes:    m.Store().Nodes(),
		Selected: m.Editor.Selected(),
		Metrics:  m.Editor.Metrics(),
	}
	if menu := m.Editor.Menu(); menu.Open {
		s.Menu = &canvas.MenuView{
			Rect:      menu.Rect,
			Items:     m.Editor.MenuItems(),
			Highlight: menu.Highlight,
		}
	}
	return s
}

func renderCanvas(m *model.Model) string {
	out := canvas.Render(scene(m), m.Viewport, styleCell)
	// keep the body height stable when the raster is empty
	if out == "" {
		out = strings.Repeat("\n", max(m.Viewport.Rows-1, 0))
	}
	return lipgloss.NewStyle().
		Width(m.Viewport.Cols).
		MaxWidth(m.Viewport.Cols).
		Height(m.Viewport.Rows).
		MaxHeight(m.Viewport.Rows).
		Render(out)
}
