package app

import (
	"io"
	"os"

	"callflow/internal/config"
)

// Config holds what the editor needs to start
type Config struct {
	// FlowPath is the flow file to open. It does not have to exist yet.
	FlowPath string

	// NoTUI watches the flow and prints a validation report on every change
	// instead of opening the canvas.
	NoTUI bool

	// Settings is the loaded callflow configuration
	Settings config.CallflowConfig

	// Out receives the reports of the watch mode
	Out io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(flowPath string, noTUI bool, settings config.CallflowConfig) *Config {
	return &Config{
		FlowPath: flowPath,
		NoTUI:    noTUI,
		Settings: settings,
		Out:      os.Stdout,
	}
}
