package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ultralog/ultralog/pkg/ingestion"
	"github.com/ultralog/ultralog/pkg/logmodel"
)

// NewOpenCommand opens a log file, waits for ingestion to complete, and
// reports a one-line summary. Useful on its own to validate a file parses
// cleanly before running channels/plot against it.
func NewOpenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Open a log file and report the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			handle, log, err := openAndAwait(cmd.Context(), cc, args[0])
			if err != nil {
				return err
			}
			defer cc.Core.Close(handle)

			fmt.Fprintf(cmd.OutOrStdout(), "opened %s: %d channels, %d records, format %s\n",
				args[0], len(log.Channels), len(log.Time), log.SourceFormat)
			return nil
		},
	}
	return cmd
}

func openAndAwait(ctx context.Context, cc *CommandContext, path string) (ingestion.Handle, *logmodel.Log, error) {
	handle, err := cc.Core.Open(ctx, path)
	if err != nil {
		return "", nil, err
	}
	log, err := cc.Core.Log(ctx, handle)
	if err != nil {
		return "", nil, err
	}
	return handle, log, nil
}
