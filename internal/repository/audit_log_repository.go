package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

const auditLogColumns = `id, entity_type, entity_id, change_type, previous_state, new_state, changed_by_user_id, created_at`

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (id, entity_type, entity_id, change_type, previous_state, new_state, changed_by_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.ChangeType,
		entry.PreviousState,
		entry.NewState,
		entry.ChangedByUserID,
	).Scan(&entry.CreatedAt)
	return translateError(err)
}

func (r *auditLogRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	entry, err := scanAuditLog(r.db.QueryRow(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE id=$1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return entry, nil
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		clauses = append(clauses, fmt.Sprintf("entity_id=$%d", len(args)))
	}
	if filter.ChangeType != nil {
		args = append(args, *filter.ChangeType)
		clauses = append(clauses, fmt.Sprintf("change_type=$%d", len(args)))
	}
	if filter.ChangedByUserID != nil {
		args = append(args, *filter.ChangedByUserID)
		clauses = append(clauses, fmt.Sprintf("changed_by_user_id=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE %s ORDER BY created_at %s, seq %s LIMIT $%d OFFSET $%d`,
		auditLogColumns, where, order, order, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *entry)
	}
	return result, total, rows.Err()
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var entry domain.AuditLog
	if err := row.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.ChangeType,
		&entry.PreviousState,
		&entry.NewState,
		&entry.ChangedByUserID,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
