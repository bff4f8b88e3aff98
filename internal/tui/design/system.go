package design

import (
	"github.com/charmbracelet/lipgloss"
)

// Spacing units
const (
	SpaceNone = 0
	SpaceXS   = 1
	SpaceSM   = 2
	SpaceMD   = 3

	// Component dimensions
	MinPanelHeight = 6
	MinPanelWidth  = 20
	// PanelWidth is the width of the configuration panel beside the canvas.
	PanelWidth = 38
)

// Palette. Every color adapts to the terminal background; the canvas uses
// the same tokens for node types (see NodeColor).
var (
	ColorPrimary = lipgloss.AdaptiveColor{
		Light: "#0F766E",
		Dark:  "#2DD4BF",
	}
	ColorSecondary = lipgloss.AdaptiveColor{
		Light: "#7C3AED",
		Dark:  "#A78BFA",
	}

	ColorSuccess = lipgloss.AdaptiveColor{
		Light: "#15803D",
		Dark:  "#4ADE80",
	}
	ColorError = lipgloss.AdaptiveColor{
		Light: "#B91C1C",
		Dark:  "#F87171",
	}
	ColorWarning = lipgloss.AdaptiveColor{
		Light: "#B45309",
		Dark:  "#FBBF24",
	}
	ColorInfo = lipgloss.AdaptiveColor{
		Light: "#1D4ED8",
		Dark:  "#60A5FA",
	}

	ColorBackground = lipgloss.AdaptiveColor{
		Light: "#FFFFFF",
		Dark:  "#111111",
	}
	ColorSurface = lipgloss.AdaptiveColor{
		Light: "#F9FAFB",
		Dark:  "#1C1C1E",
	}
	ColorSurfaceAlt = lipgloss.AdaptiveColor{
		Light: "#F3F4F6",
		Dark:  "#2C2C2E",
	}
	ColorBorder = lipgloss.AdaptiveColor{
		Light: "#D1D5DB",
		Dark:  "#404040",
	}
	ColorBorderFocus = lipgloss.AdaptiveColor{
		Light: "#0F766E",
		Dark:  "#2DD4BF",
	}

	ColorText = lipgloss.AdaptiveColor{
		Light: "#111827",
		Dark:  "#F9FAFB",
	}
	ColorTextSecondary = lipgloss.AdaptiveColor{
		Light: "#6B7280",
		Dark:  "#9CA3AF",
	}
	ColorTextTertiary = lipgloss.AdaptiveColor{
		Light: "#9CA3AF",
		Dark:  "#6B7280",
	}

	ColorHighlight = lipgloss.AdaptiveColor{
		Light: "#CCFBF1",
		Dark:  "#134E4A",
	}
)

// Text and borders
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextSecondaryStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary)

	TextTertiaryStyle = lipgloss.NewStyle().
				Foreground(ColorTextTertiary)

	TextSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)

	TextErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	TextWarningStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	BorderFocusStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(ColorBorderFocus)
)

// Chrome
var (
	PanelStyle = lipgloss.NewStyle().
			Inherit(BorderStyle).
			Foreground(ColorText).
			Padding(0, SpaceXS)

	PanelFocusedStyle = PanelStyle.
				Inherit(BorderFocusStyle).
				BorderForeground(ColorBorderFocus)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Background(ColorSurface).
			Foreground(ColorText).
			Padding(0, SpaceXS)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorSurfaceAlt).
			Foreground(ColorText).
			Padding(0, SpaceXS).
			Height(1)

	StatusBarSuccessStyle = StatusBarStyle.
				Background(ColorSuccess).
				Foreground(ColorBackground)

	StatusBarErrorStyle = StatusBarStyle.
				Background(ColorError).
				Foreground(ColorBackground)

	StatusBarWarningStyle = StatusBarStyle.
				Background(ColorWarning).
				Foreground(ColorBackground)

	StatusBarInfoStyle = StatusBarStyle.
				Background(ColorInfo).
				Foreground(ColorBackground)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	FieldFocusedLabelStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Background(ColorSurface).
			Foreground(ColorText).
			Padding(1, 2)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextTertiary)
)

// Icons
var (
	IconDefaultStyle = lipgloss.NewStyle().Foreground(ColorTextSecondary)
	IconSuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	IconErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	IconWarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	IconInfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)
	IconPrimaryStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
)

// Log overlay
var (
	LogInfoStyle  = lipgloss.NewStyle().Foreground(ColorText)
	LogWarnStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	LogErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
	LogDebugStyle = lipgloss.NewStyle().Foreground(ColorTextTertiary).Italic(true)
)

// Canvas styles
var (
	EdgeStyle       = lipgloss.NewStyle().Foreground(ColorTextTertiary)
	ArrowStyle      = lipgloss.NewStyle().Foreground(ColorTextSecondary)
	AddButtonStyle  = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	MenuStyle       = lipgloss.NewStyle().Foreground(ColorText).Background(ColorSurfaceAlt)
	MenuActiveStyle = lipgloss.NewStyle().Foreground(ColorBackground).Background(ColorPrimary).Bold(true)
)

// NodeColor resolves the color key of a node type.
func NodeColor(key string) lipgloss.TerminalColor {
	switch key {
	case "primary":
		return ColorPrimary
	case "secondary":
		return ColorSecondary
	case "success":
		return ColorSuccess
	case "error":
		return ColorError
	case "warning":
		return ColorWarning
	case "info":
		return ColorInfo
	}
	return ColorText
}

// NodeStyle is the style of a node box with the given color key.
func NodeStyle(key string, selected bool) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(NodeColor(key))
	if selected {
		s = s.Bold(true).Background(ColorHighlight)
	}
	return s
}

// Initialize sets up the design system. theme is "dark", "light" or "auto".
func Initialize(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
