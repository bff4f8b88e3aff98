package config

import (
	"fmt"
	"strings"

	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/pkg/logging"
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() CallflowConfig {
	m := canvas.DefaultMetrics()
	o := graph.DefaultOptions()
	return CallflowConfig{
		Canvas: CanvasConfig{
			NodeWidth:       m.NodeWidth,
			NodeHeight:      m.NodeHeight,
			CellWidth:       10,
			CellHeight:      20,
			SpawnOffsetY:    o.SpawnOffset.Y,
			DuplicateOffset: o.DuplicateOffset.X,
			IDs:             IDStyleUUID,
		},
		Storage: StorageConfig{
			Dir:           "flows",
			DefaultFormat: string(storage.FormatYAML),
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8095,
		},
		UI: UIConfig{
			Theme:    ThemeAuto,
			LogLevel: "info",
		},
	}
}

// Validate checks values that would otherwise fail far from their source.
func (c CallflowConfig) Validate() error {
	if c.Canvas.NodeWidth <= 0 || c.Canvas.NodeHeight <= 0 {
		return fmt.Errorf("canvas: node size must be positive, got %vx%v", c.Canvas.NodeWidth, c.Canvas.NodeHeight)
	}
	if c.Canvas.CellWidth <= 0 || c.Canvas.CellHeight <= 0 {
		return fmt.Errorf("canvas: cell size must be positive, got %vx%v", c.Canvas.CellWidth, c.Canvas.CellHeight)
	}
	switch c.Canvas.IDs {
	case IDStyleUUID, IDStyleSequence:
	default:
		return fmt.Errorf("canvas: unknown id style %q", c.Canvas.IDs)
	}
	if _, err := storage.ParseFormat(c.Storage.DefaultFormat); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	switch c.UI.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("ui: unknown theme %q", c.UI.Theme)
	}
	switch strings.ToLower(c.UI.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("ui: unknown log level %q", c.UI.LogLevel)
	}
	return nil
}

// Metrics is the canvas footprint described by the configuration.
func (c CallflowConfig) Metrics() canvas.Metrics {
	m := canvas.DefaultMetrics()
	m.NodeWidth = c.Canvas.NodeWidth
	m.NodeHeight = c.Canvas.NodeHeight
	return m
}

// GraphOptions translates the canvas section into graph store options.
func (c CallflowConfig) GraphOptions() []graph.Option {
	var ids graph.IDGenerator = graph.UUIDGenerator{}
	if c.Canvas.IDs == IDStyleSequence {
		ids = graph.NewSequenceGenerator(0)
	}
	return []graph.Option{
		graph.WithIDGenerator(ids),
		graph.WithSpawnOffset(graph.Position{Y: c.Canvas.SpawnOffsetY}),
		graph.WithSiblingSpacing(c.Canvas.SiblingSpacing),
		graph.WithDuplicateOffset(graph.Position{X: c.Canvas.DuplicateOffset, Y: c.Canvas.DuplicateOffset}),
	}
}

// DefaultFormat is the document encoding for new flows.
func (c CallflowConfig) DefaultFormat() storage.Format {
	f, err := storage.ParseFormat(c.Storage.DefaultFormat)
	if err != nil {
		return storage.FormatYAML
	}
	return f
}

// LogLevel is the configured minimum log level.
func (c CallflowConfig) LogLevel() logging.LogLevel {
	return logging.ParseLevel(c.UI.LogLevel)
}
