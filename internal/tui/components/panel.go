package components

import (
	"strings"

	"callflow/internal/tui/design"
	"callflow/internal/tui/utils"

	"github.com/charmbracelet/lipgloss"
)

// PanelType defines the border color of a panel
type PanelType int

const (
	PanelTypeDefault PanelType = iota
	PanelTypeSuccess
	PanelTypeError
	PanelTypeWarning
	PanelTypeInfo
)

// Panel is a bordered box with a title, a body and an optional footer
// pinned to its last line.
type Panel struct {
	Title   string
	Icon    string
	Content string
	Footer  string
	Width   int
	Height  int
	Focused bool
	Type    PanelType
}

// NewPanel creates a new panel with default settings
func NewPanel(title string) *Panel {
	return &Panel{
		Title:  title,
		Width:  design.MinPanelWidth,
		Height: design.MinPanelHeight,
	}
}

// WithContent sets the panel body
func (p *Panel) WithContent(content string) *Panel {
	p.Content = content
	return p
}

// WithFooter sets the line pinned to the bottom of the panel
func (p *Panel) WithFooter(footer string) *Panel {
	p.Footer = footer
	return p
}

// WithDimensions sets the outer panel dimensions
func (p *Panel) WithDimensions(width, height int) *Panel {
	p.Width = width
	p.Height = height
	return p
}

// WithType sets the panel type for styling
func (p *Panel) WithType(panelType PanelType) *Panel {
	p.Type = panelType
	return p
}

// WithIcon sets the icon shown before the title
func (p *Panel) WithIcon(icon string) *Panel {
	p.Icon = icon
	return p
}

// SetFocused updates the focus state
func (p *Panel) SetFocused(focused bool) *Panel {
	p.Focused = focused
	return p
}

// Render returns the styled panel. Content that does not fit is cut.
func (p *Panel) Render() string {
	if p.Width < design.MinPanelWidth {
		p.Width = design.MinPanelWidth
	}
	if p.Height < design.MinPanelHeight {
		p.Height = design.MinPanelHeight
	}

	style := p.getStyle()
	innerWidth := max(p.Width-style.GetHorizontalFrameSize(), 1)
	innerHeight := max(p.Height-style.GetVerticalFrameSize(), 1)

	var lines []string
	if p.Title != "" {
		lines = append(lines, p.renderTitle(innerWidth), "")
	}

	bodyHeight := innerHeight - len(lines)
	if p.Footer != "" {
		bodyHeight--
	}
	if p.Content != "" && bodyHeight > 0 {
		body := strings.Split(p.Content, "\n")
		if len(body) > bodyHeight {
			body = append(body[:bodyHeight-1], "…")
		}
		for _, line := range body {
			lines = append(lines, utils.Ellipsis(line, innerWidth))
		}
	}

	for len(lines) < innerHeight-1 || (p.Footer == "" && len(lines) < innerHeight) {
		lines = append(lines, "")
	}
	if p.Footer != "" {
		lines = append(lines, utils.Ellipsis(p.Footer, innerWidth))
	}
	if len(lines) > innerHeight {
		lines = lines[:innerHeight]
	}

	// Width and Height exclude the border in lipgloss.
	return style.
		Width(p.Width - style.GetHorizontalBorderSize()).
		Height(innerHeight).
		Render(strings.Join(lines, "\n"))
}

func (p *Panel) getStyle() lipgloss.Style {
	style := design.PanelStyle
	if p.Focused {
		style = design.PanelFocusedStyle
	}

	switch p.Type {
	case PanelTypeSuccess:
		return style.BorderForeground(design.ColorSuccess)
	case PanelTypeError:
		return style.BorderForeground(design.ColorError)
	case PanelTypeWarning:
		return style.BorderForeground(design.ColorWarning)
	case PanelTypeInfo:
		return style.BorderForeground(design.ColorInfo)
	default:
		return style
	}
}

func (p *Panel) renderTitle(width int) string {
	titleStyle := design.TitleStyle
	iconStyle := design.IconDefaultStyle
	if p.Focused {
		titleStyle = titleStyle.Foreground(design.ColorPrimary)
		iconStyle = design.IconPrimaryStyle
	}

	title := utils.Ellipsis(p.Title, width)
	if p.Icon != "" {
		title = utils.Ellipsis(p.Icon+" "+p.Title, width)
		icon, rest, _ := strings.Cut(title, " ")
		return iconStyle.Render(icon) + " " + titleStyle.Render(rest)
	}
	return titleStyle.Render(title)
}
