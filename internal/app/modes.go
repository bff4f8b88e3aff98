package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"callflow/internal/cli"
	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/internal/tui/controller"
	"callflow/internal/tui/design"
	"callflow/pkg/logging"

	"github.com/fatih/color"
)

// runCLIMode watches the flow file and prints a validation report whenever
// it changes, until ctx is cancelled.
func runCLIMode(ctx context.Context, config *Config) error {
	path := config.FlowPath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	w, err := storage.NewWatcher(path, 0)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}

	logging.Info("CLI", "Watching %s. Press Ctrl+C to stop.", path)
	p := cli.NewPrinter(config.Out, cli.PrinterOptions{Color: !color.NoColor})

	report(p, config)
	for {
		select {
		case <-ctx.Done():
			logging.Info("CLI", "Stopped watching %s", path)
			return nil
		case _, ok := <-w.Changes():
			if !ok {
				return nil
			}
			report(p, config)
		}
	}
}

func report(p *cli.Printer, config *Config) {
	out := config.Out
	doc, err := storage.Load(config.FlowPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(out, "%s does not exist yet\n", config.FlowPath)
		return
	case err != nil:
		logging.Error("CLI", err, "Failed to load %s", config.FlowPath)
		fmt.Fprintf(out, "✗ %v\n", err)
		return
	}

	s, issues := doc.Store(config.Settings.GraphOptions()...)
	fmt.Fprintf(out, "%s: version %d, %d nodes\n", doc.Name, doc.Version, s.Len())
	p.Issues(graph.MergeIssues(issues, s.Validate()))
}

// runTUIMode executes the interactive canvas
func runTUIMode(ctx context.Context, config *Config) error {
	logging.Info("CLI", "Starting editor for %s", config.FlowPath)

	design.Initialize(config.Settings.UI.Theme)

	// Switch logging to channel-based system for TUI integration
	logChan := logging.InitForTUI(config.Settings.LogLevel())
	defer logging.CloseTUIChannel()

	if err := controller.Run(config.FlowPath, config.Settings, logChan); err != nil {
		logging.Error("TUI-Lifecycle", err, "Error running editor")
		return err
	}
	logging.Info("TUI-Lifecycle", "Editor exited.")
	return nil
}
