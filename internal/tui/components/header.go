package components

import (
	"strings"

	"callflow/internal/tui/design"
	"callflow/internal/tui/utils"

	"github.com/charmbracelet/lipgloss"
)

// Header is the one line title bar above the canvas
type Header struct {
	Title        string
	Subtitle     string
	Width        int
	RightContent string
}

// NewHeader creates a new header
func NewHeader(title string) *Header {
	return &Header{
		Title: title,
		Width: 80,
	}
}

// WithSubtitle adds a subtitle
func (h *Header) WithSubtitle(subtitle string) *Header {
	h.Subtitle = subtitle
	return h
}

// WithRightContent adds content to the right side
func (h *Header) WithRightContent(content string) *Header {
	h.RightContent = content
	return h
}

// WithWidth sets the header width
func (h *Header) WithWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header
func (h *Header) Render() string {
	left := h.Title
	if h.Subtitle != "" {
		left += " " + design.TextSecondaryStyle.Render(h.Subtitle)
	}

	available := h.Width - design.HeaderStyle.GetHorizontalPadding()
	content := left
	if h.RightContent != "" {
		leftWidth := lipgloss.Width(left)
		rightWidth := lipgloss.Width(h.RightContent)
		if leftWidth+rightWidth+2 <= available {
			content = left + strings.Repeat(" ", available-leftWidth-rightWidth) + h.RightContent
		}
	}
	if lipgloss.Width(content) > available {
		content = utils.TruncateString(content, available)
	}

	return design.HeaderStyle.
		Width(h.Width).
		MaxWidth(h.Width).
		Render(content)
}
