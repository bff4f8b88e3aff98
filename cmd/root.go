package cmd

import (
	"os"

	"callflow/internal/config"
	"callflow/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	// appConfig is loaded before any subcommand runs.
	appConfig = config.GetDefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callflow",
	Short: "Design call flows for AI voice agents",
	Long: `callflow edits the call flows of AI voice agents as node graphs:
a start node, subagents, conditions, tools, transfers and call endings
connected in the order a call moves through them.

Flows are plain YAML, JSON or TOML documents. Edit them on a mouse-driven
terminal canvas (callflow edit), script them (callflow workflow), or let
agents build them through the MCP server (callflow serve).`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. missing flows, invalid node ids)
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// loadConfig sets up CLI logging and the layered configuration. The edit
// command switches logging to the TUI channel itself.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.UI.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	appConfig = cfg
	logging.InitForCLI(cfg.LogLevel(), cmd.ErrOrStderr())
	return nil
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "callflow version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file applied after ~/.config/callflow/config.yaml and .callflow/config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
