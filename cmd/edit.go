package cmd

import (
	"os/signal"
	"syscall"

	"callflow/internal/app"

	"github.com/spf13/cobra"
)

var editNoTUI bool

var editCmd = &cobra.Command{
	Use:   "edit <flow>",
	Short: "Open a call flow on the interactive canvas",
	Long: `Opens a call flow in the terminal editor. <flow> is a file path with a
.yaml, .json or .toml extension, or the name of a flow in the flow directory.
A flow that does not exist yet is created on the first save (ctrl+s).

Drag nodes with the mouse, click a node to configure it and click the "+"
below a node to add the next step. Press ? for all keyboard shortcuts.

With --no-tui the flow is watched instead: every time the file changes a
validation report is printed, which is handy while editing the file by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	path, err := flowPath(args[0], false)
	if err != nil {
		return err
	}

	cfg := app.NewConfig(path, editNoTUI, appConfig)
	cfg.Out = cmd.OutOrStdout()
	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&editNoTUI, "no-tui", false, "watch the flow and print validation reports instead of opening the editor")
}
