package view

import (
	"fmt"
	"strings"

	"callflow/internal/tui/components"
	"callflow/internal/tui/design"
	"callflow/internal/tui/model"

	"github.com/charmbracelet/lipgloss"
)

// Render draws the whole screen: header, canvas with the optional
// configuration panel, and the status bar. Overlays replace the body.
func Render(m *model.Model) string {
	if m.CurrentAppMode == model.ModeQuitting {
		return ""
	}
	if m.Width <= 0 || m.Height <= 0 {
		return "Loading…"
	}

	_, rows := m.CanvasSize()

	var body string
	switch m.CurrentAppMode {
	case model.ModeHelpOverlay:
		body = place(m.Width, rows, renderHelpOverlay(m))
	case model.ModeLogOverlay:
		body = place(m.Width, rows, renderLogOverlay(m))
	case model.ModeRawJSON:
		body = place(m.Width, rows, renderJSONOverlay(m))
	default:
		body = renderCanvas(m)
		if m.PanelOpen() {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, renderPanel(m, rows))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(m),
		body,
		renderStatusBar(m),
	)
}

func renderHeader(m *model.Model) string {
	name := m.Document.Name
	switch {
	case m.IsNew:
		name += " (new)"
	case m.Editor.Dirty():
		name += " ●"
	}

	right := fmt.Sprintf("%d nodes", m.Store().Len())
	if !m.IsNew {
		right += fmt.Sprintf(" · v%d", m.Document.Version)
	}

	return components.NewHeader("☎ callflow").
		WithSubtitle(name).
		WithRightContent(right).
		WithWidth(m.Width).
		Render()
}

func renderStatusBar(m *model.Model) string {
	left := m.Help.ShortHelpView(m.Keys.ShortHelp())
	switch m.CurrentAppMode {
	case model.ModeForm:
		left = "enter/tab next field · ←/→ change choice · esc close"
	case model.ModeRawJSON:
		left = "ctrl+s apply · esc cancel"
	case model.ModeHelpOverlay:
		left = "esc close help"
	case model.ModeLogOverlay:
		left = "↑/↓ scroll · y copy · esc close"
	}
	if m.Editor.Menu().Open {
		left = "↑/↓ choose · enter add · esc close"
	}

	return components.NewStatusBar(m.Width).
		WithLeftText(left).
		WithRightText(m.CurrentAppMode.String()).
		WithMessage(m.StatusBarMessage, m.StatusBarMessageType).
		Render()
}

// place centers an overlay box in the body area.
func place(width, height int, box string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func renderHelpOverlay(m *model.Model) string {
	h := m.Help
	h.ShowAll = true
	title := design.TitleStyle.Render("Keyboard shortcuts")
	mouse := design.TextSecondaryStyle.Render("Mouse: drag nodes to move · click to configure · click + to add a step · wheel pans")
	return design.OverlayStyle.Render(strings.Join([]string{title, "", h.FullHelpView(m.Keys.FullHelp()), "", mouse}, "\n"))
}

func renderLogOverlay(m *model.Model) string {
	title := design.TitleStyle.Render("Activity log")
	content := m.LogViewport.View()
	if len(m.ActivityLog) == 0 {
		content = design.DimStyle.Render("nothing logged yet")
	}
	return design.OverlayStyle.Render(title + "\n\n" + content)
}

func renderJSONOverlay(m *model.Model) string {
	title := design.TitleStyle.Render("Tool configuration: " + m.Editor.Selected())
	lines := []string{title, "", m.JSONInput.View()}
	if m.JSONError != "" {
		lines = append(lines, "", design.TextErrorStyle.Render("✗ "+m.JSONError))
	}
	return design.OverlayStyle.Render(strings.Join(lines, "\n"))
}
