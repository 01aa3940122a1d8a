package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	cmd.AddCommand(newAuditListCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var q service.AuditLogQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			return runAuditList(cmd.Context(), e, q, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&q.EntityType, "entity-type", "", "EMPLOYEE, DEPARTMENT, TEAM or USER")
	cmd.Flags().StringVar(&q.EntityID, "entity-id", "", "Only entries for this record")
	cmd.Flags().StringVar(&q.ChangeType, "change-type", "", "CREATE, UPDATE, DELETE or BULK_UPDATE")
	cmd.Flags().StringVar(&q.ChangedByUserID, "user", "", "Only entries made by this user id")
	cmd.Flags().IntVar(&q.Limit, "limit", 25, "Page size (1-100)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Entries to skip")
	cmd.Flags().StringVar(&q.Order, "order", "desc", "asc or desc by creation time")
	return cmd
}

func runAuditList(ctx context.Context, e *env, q service.AuditLogQuery, out io.Writer) error {
	var page *service.AuditLogPage
	err := e.uow.Do(ctx, func(tx repository.Tx) error {
		var err error
		page, err = e.deps.Recorder.ListAuditLogs(ctx, tx, q)
		return err
	})
	if apperrors.IsCode(err, apperrors.CodeValidation) {
		return withCode(exitUsage, err)
	}
	if err != nil {
		return withCode(exitDB, err)
	}
	resp := dto.AuditLogPageResponse{
		Items:  make([]dto.AuditLogResponse, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i := range page.Items {
		resp.Items = append(resp.Items, dto.NewAuditLogResponse(&page.Items[i]))
	}
	return writeJSON(out, resp)
}
