package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewChannelsCommand opens a log and renders its channel table: raw
// name, resolved canonical name, stored unit, and observed range.
func NewChannelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels <path>",
		Short: "List the channels in a log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			handle, _, err := openAndAwait(cmd.Context(), cc, args[0])
			if err != nil {
				return err
			}
			defer cc.Core.Close(handle)

			channels, err := cc.Core.Channels(cmd.Context(), handle)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Raw Name", "Canonical", "Unit", "Min", "Max", "Also Known As"})
			for _, ch := range channels {
				row := table.Row{ch.RawName, ch.CanonicalName, ch.Unit}
				if ch.HasRange {
					row = append(row, fmt.Sprintf("%.3f", ch.Min), fmt.Sprintf("%.3f", ch.Max))
				} else {
					row = append(row, "-", "-")
				}
				row = append(row, strings.Join(ch.Aliases, ", "))
				t.AppendRow(row)
			}
			t.Render()
			return nil
		},
	}
	return cmd
}
