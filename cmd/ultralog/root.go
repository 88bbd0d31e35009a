package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var configDir string
var logLevel string

// NewRootCmd builds the ultralog command tree. Every leaf command opens
// its own Core via NewCommandContext; ultralog has no daemon or shared
// process state across invocations.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ultralog",
		Short:   "ultralog - ECU telemetry log viewer",
		Long:    "ultralog opens engine-control-unit telemetry logs, lists their channels, manages a library of computed-channel formulas, and plots a channel in the terminal.",
		Version: Version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory to load ultralog.yaml from")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "minimum level to log to stderr: debug, info, warn, or error")

	rootCmd.AddCommand(NewOpenCommand())
	rootCmd.AddCommand(NewChannelsCommand())
	rootCmd.AddCommand(NewLibraryCommand())
	rootCmd.AddCommand(NewFormulaCommand())
	rootCmd.AddCommand(NewPlotCommand())
	rootCmd.AddCommand(NewAnalyzeCommand())

	return rootCmd
}
