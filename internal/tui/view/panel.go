package view

import (
	"fmt"
	"strings"

	"callflow/internal/editor"
	"callflow/internal/graph"
	"callflow/internal/tui/components"
	"callflow/internal/tui/design"
	"callflow/internal/tui/model"
)

// renderPanel draws the configuration panel of the selected node.
func renderPanel(m *model.Model, height int) string {
	n, ok := m.Editor.SelectedNode()
	if !ok {
		return ""
	}
	spec, _ := graph.Lookup(n.Type)
	editing := m.CurrentAppMode == model.ModeForm

	var b strings.Builder
	b.WriteString(design.TextSecondaryStyle.Render(fmt.Sprintf("%s · %s", spec.Label, n.ID)))
	b.WriteString("\n")
	if spec.Description != "" {
		b.WriteString(design.DimStyle.Render(spec.Description))
		b.WriteString("\n")
	}

	for i, f := range editor.FormFor(n) {
		b.WriteString("\n")
		focused := editing && i == m.FormFocus
		b.WriteString(fieldLabel(f, focused))
		b.WriteString("\n")
		if focused {
			b.WriteString(m.FieldInput.View())
		} else {
			b.WriteString(fieldValue(f))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(connections(m, n))

	footer := design.DimStyle.Render(panelHint(n, editing))
	kind := components.PanelTypeDefault
	if editing && m.FieldError != "" {
		footer = design.TextErrorStyle.Render("✗ " + m.FieldError)
		kind = components.PanelTypeError
	}

	return components.NewPanel(label(n)).
		WithIcon(spec.Icon).
		WithType(kind).
		WithContent(strings.TrimRight(b.String(), "\n")).
		WithFooter(footer).
		WithDimensions(design.PanelWidth, height).
		SetFocused(editing).
		Render()
}

func label(n graph.Node) string {
	if l := n.Label(); l != "" {
		return l
	}
	return string(n.Type)
}

func fieldLabel(f editor.Field, focused bool) string {
	text := f.Label
	if f.Kind == editor.FieldChoice {
		text += " (" + strings.Join(f.Choices, "|") + ")"
	}
	if focused {
		return design.FieldFocusedLabelStyle.Render("▸ " + text)
	}
	return design.FieldLabelStyle.Render(text)
}

func fieldValue(f editor.Field) string {
	if f.Value == "" {
		return design.DimStyle.Render(f.Placeholder)
	}
	// multiline values show their first line only
	first, _, more := strings.Cut(f.Value, "\n")
	if more {
		first += " …"
	}
	return design.TextStyle.Render(first)
}

func connections(m *model.Model, n graph.Node) string {
	in := m.Store().Incoming(n.ID)
	lines := []string{design.FieldLabelStyle.Render("Connections")}
	if len(in) > 0 {
		lines = append(lines, "← "+strings.Join(in, ", "))
	}
	if len(n.Connections) > 0 {
		lines = append(lines, "→ "+strings.Join(n.Connections, ", "))
	}
	if len(in) == 0 && len(n.Connections) == 0 {
		lines = append(lines, design.DimStyle.Render("none"))
	}
	return strings.Join(lines, "\n")
}

func panelHint(n graph.Node, editing bool) string {
	if editing {
		return "enter save · esc close"
	}
	hint := "enter edit"
	if editor.SupportsRawJSON(n) {
		hint += " · e json"
	}
	if n.Type != graph.TypeStart {
		hint += " · d dup · x del"
	}
	return hint
}
