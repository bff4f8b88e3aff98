// Package app starts the flow editor, either as the interactive canvas or as
// a headless watcher that re-validates the flow whenever its file changes.
package app

import (
	"context"
	"fmt"
	"os"

	"callflow/internal/storage"
	"callflow/pkg/logging"
)

const subsystem = "Bootstrap"

// Application is the main application structure that bootstraps and runs the editor
type Application struct {
	config *Config
}

// NewApplication checks the configuration and creates an application instance
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.FlowPath == "" {
		return nil, fmt.Errorf("no flow to open")
	}
	if _, err := storage.FormatFor(cfg.FlowPath); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", cfg.FlowPath, err)
	}
	if err := cfg.Settings.Validate(); err != nil {
		logging.Error(subsystem, err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Application{config: cfg}, nil
}

// Run executes the application in the appropriate mode
func (a *Application) Run(ctx context.Context) error {
	if a.config.NoTUI {
		return runCLIMode(ctx, a.config)
	}
	return runTUIMode(ctx, a.config)
}
