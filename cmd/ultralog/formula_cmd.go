package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ultralog/ultralog/pkg/formula"
	"github.com/ultralog/ultralog/pkg/logmodel"
)

// NewFormulaCommand groups standalone formula operations that don't need
// the template library.
func NewFormulaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Work with formula expressions directly",
	}
	cmd.AddCommand(newFormulaValidateCommand())
	return cmd
}

func newFormulaValidateCommand() *cobra.Command {
	var logPath, selfName string
	cmd := &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check a formula for syntax errors and unresolved references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var log *logmodel.Log
			if logPath != "" {
				cc, err := NewCommandContext(cmd)
				if err != nil {
					return err
				}
				handle, loaded, err := openAndAwait(cmd.Context(), cc, logPath)
				if err != nil {
					return err
				}
				defer cc.Core.Close(handle)
				log = loaded
			}

			result := formula.Validate(args[0], selfName, log)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.Verdict)
			if len(result.References) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "references: %v\n", result.References)
			}
			if result.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", result.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "validate references against this log file's channels")
	cmd.Flags().StringVar(&selfName, "self", "", "reject this name as a self-reference")
	return cmd
}
