package config

// CallflowConfig is the top-level configuration structure for callflow.
type CallflowConfig struct {
	Canvas  CanvasConfig  `yaml:"canvas"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	UI      UIConfig      `yaml:"ui"`
}

// ID styles for CanvasConfig.IDs.
const (
	IDStyleUUID     = "uuid"
	IDStyleSequence = "sequence"
)

// CanvasConfig controls node geometry and placement, in canvas pixels.
type CanvasConfig struct {
	NodeWidth       float64 `yaml:"nodeWidth,omitempty"`
	NodeHeight      float64 `yaml:"nodeHeight,omitempty"`
	CellWidth       float64 `yaml:"cellWidth,omitempty"`  // pixels per terminal column
	CellHeight      float64 `yaml:"cellHeight,omitempty"` // pixels per terminal row
	SpawnOffsetY    float64 `yaml:"spawnOffsetY,omitempty"`
	SiblingSpacing  float64 `yaml:"siblingSpacing,omitempty"`
	DuplicateOffset float64 `yaml:"duplicateOffset,omitempty"`
	IDs             string  `yaml:"ids,omitempty"`
}

// StorageConfig controls where flows live and how they are written.
type StorageConfig struct {
	Dir           string `yaml:"dir,omitempty"`
	DefaultFormat string `yaml:"defaultFormat,omitempty"`
	// Watch reloads the open flow when it changes on disk. A pointer so that
	// an overlay can switch it off.
	Watch *bool `yaml:"watch,omitempty"`
}

// WatchEnabled reports the effective watch setting.
func (s StorageConfig) WatchEnabled() bool {
	return s.Watch == nil || *s.Watch
}

// ServerConfig is the MCP server's listen address.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// Themes for UIConfig.Theme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// UIConfig tunes the terminal editor.
type UIConfig struct {
	Theme    string `yaml:"theme,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
}
