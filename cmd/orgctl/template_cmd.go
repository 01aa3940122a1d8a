package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/org-hierarchy/internal/importfile"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty XLSX import template",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importfile.Template()
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if err := f.SaveAs(out); err != nil {
				return withCode(exitUsage, fmt.Errorf("save %s: %w", out, err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "employee_import_template.xlsx", "Output path")
	return cmd
}
