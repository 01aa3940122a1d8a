package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/importfile"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

type importOptions struct {
	file  string
	apply bool
	actor string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import employees from a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			return runImport(cmd.Context(), e, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV or XLSX file with a header row (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write the employees (default is dry-run)")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "User id recorded on audit entries")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, e *env, opts importOptions, out io.Writer) error {
	if opts.actor != "" {
		if err := auth.ValidateUserID(opts.actor); err != nil {
			return withCode(exitUsage, fmt.Errorf("--actor: %w", err))
		}
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("open %s: %w", opts.file, err))
	}
	defer f.Close()

	rows, err := importfile.Decode(filepath.Base(opts.file), f)
	if err != nil {
		return withCode(exitValidation, err)
	}

	var actor *string
	if opts.actor != "" {
		actor = &opts.actor
	}
	imports := service.NewImportService(e.deps)

	var result *service.ImportResult
	err = e.uow.Do(ctx, func(tx repository.Tx) error {
		var err error
		result, err = imports.ImportEmployees(ctx, tx, actor, rows, service.ImportOptions{
			DryRun:  !opts.apply,
			MaxRows: e.cfg.Import.MaxRows,
		})
		return err
	})
	if apperrors.IsCode(err, apperrors.CodeValidation) {
		return withCode(exitValidation, err)
	}
	if err != nil {
		return withCode(exitDB, err)
	}
	if err := writeJSON(out, result); err != nil {
		return err
	}
	if result.Failed() {
		return withCode(exitValidation, fmt.Errorf("import rejected: %d failed rows", len(result.FailedRows)))
	}
	return nil
}
