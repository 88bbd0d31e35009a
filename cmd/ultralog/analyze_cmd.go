package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewAnalyzeCommand groups the built-in signal-analysis operations: list
// what's available, and run one against a log file.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run built-in signal analyzers against a log",
	}
	cmd.AddCommand(newAnalyzeListCommand())
	cmd.AddCommand(newAnalyzeRunCommand())
	return cmd
}

func newAnalyzeListCommand() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in analyzers, optionally filtered to those a log file supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Category", "Required Channels"})

			if logPath == "" {
				for _, info := range cc.Core.ListAnalyzers() {
					t.AppendRow(table.Row{info.ID, info.Name, info.Category, info.RequiredChannels})
				}
				t.Render()
				return nil
			}

			handle, _, err := openAndAwait(cmd.Context(), cc, logPath)
			if err != nil {
				return err
			}
			defer cc.Core.Close(handle)

			available, err := cc.Core.AvailableAnalyzers(handle)
			if err != nil {
				return err
			}
			for _, info := range available {
				t.AppendRow(table.Row{info.ID, info.Name, info.Category, info.RequiredChannels})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "restrict to analyzers this log file's channels support")
	return cmd
}

func newAnalyzeRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <analyzer-id> <path>",
		Short: "Run an analyzer against a log file and report its result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			handle, _, err := openAndAwait(cmd.Context(), cc, args[1])
			if err != nil {
				return err
			}
			defer cc.Core.Close(handle)

			result, err := cc.Core.RunAnalyzer(handle, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d records\n", result.Name, result.Unit, len(result.Values))
			return nil
		},
	}
	return cmd
}
