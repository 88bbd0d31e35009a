package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ultralog/ultralog/pkg/library"
)

// NewLibraryCommand groups the computed-channel template library
// operations: list, add, update, remove, and apply against a log.
func NewLibraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the computed-channel template library",
	}
	cmd.AddCommand(newLibraryListCommand())
	cmd.AddCommand(newLibraryAddCommand())
	cmd.AddCommand(newLibraryUpdateCommand())
	cmd.AddCommand(newLibraryRemoveCommand())
	cmd.AddCommand(newLibraryApplyCommand())
	return cmd
}

func newLibraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every template in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			templates, err := cc.Core.ListTemplates()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Formula", "Unit", "Description"})
			for _, tpl := range templates {
				t.AppendRow(table.Row{tpl.ID, tpl.Name, tpl.Formula, tpl.Unit, tpl.Description})
			}
			t.Render()
			return nil
		},
	}
}

func newLibraryAddCommand() *cobra.Command {
	var name, formula, unit, description string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new computed-channel template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			id, err := cc.Core.AddTemplate(library.FormulaTemplate{
				Name:        name,
				Formula:     formula,
				Unit:        unit,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "computed channel name")
	cmd.Flags().StringVar(&formula, "formula", "", "formula expression")
	cmd.Flags().StringVar(&unit, "unit", "", "display unit")
	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("formula")
	return cmd
}

func newLibraryUpdateCommand() *cobra.Command {
	var name, formula, unit, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite an existing template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return cc.Core.UpdateTemplate(args[0], library.FormulaTemplate{
				Name:        name,
				Formula:     formula,
				Unit:        unit,
				Description: description,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "computed channel name")
	cmd.Flags().StringVar(&formula, "formula", "", "formula expression")
	cmd.Flags().StringVar(&unit, "unit", "", "display unit")
	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	return cmd
}

func newLibraryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a template from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return cc.Core.RemoveTemplate(args[0])
		},
	}
}

func newLibraryApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <path>",
		Short: "Apply every compatible template to a log file",
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

			results, err := cc.Core.ApplyAllCompatibleTemplates(handle)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Unit", "Records"})
			for _, result := range results {
				t.AppendRow(table.Row{result.Name, result.Unit, len(result.Values)})
			}
			t.Render()
			return nil
		},
	}
}
