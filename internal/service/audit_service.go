package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

const (
	defaultAuditPageSize = 25
	maxAuditPageSize     = 100
)

// AuditRecorder writes audit entries inside the caller's unit of work and
// serves audit queries.
type AuditRecorder struct {
	logger *zap.Logger
}

// NewAuditRecorder constructs the recorder.
func NewAuditRecorder(logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{logger: logger}
}

// Record persists one audit entry. previous is nil for creates and next is nil
// for deletes.
func (r *AuditRecorder) Record(ctx context.Context, tx repository.Tx, entityType domain.EntityType, entityID string, changeType domain.ChangeType, previous, next map[string]any, actorID *string) (*domain.AuditLog, error) {
	entry := &domain.AuditLog{
		ID:              uuid.NewString(),
		EntityType:      entityType,
		EntityID:        entityID,
		ChangeType:      changeType,
		PreviousState:   previous,
		NewState:        next,
		ChangedByUserID: actorID,
	}
	if err := tx.AuditLogs().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record audit entry: %w", err)
	}
	return entry, nil
}

// Mutate runs fn with an audited writer. Writes made through the writer land
// in tx immediately; their audit entries are persisted once fn succeeds. On
// error nothing is recorded and the caller is expected to roll tx back.
func (r *AuditRecorder) Mutate(ctx context.Context, tx repository.Tx, actorID *string, fn func(w *Writer) error) ([]domain.AuditLog, error) {
	w := &Writer{tx: tx}
	if err := fn(w); err != nil {
		return nil, err
	}

	entries := make([]domain.AuditLog, 0, len(w.pending))
	for _, p := range w.pending {
		entry, err := r.Record(ctx, tx, p.entityType, p.entityID, p.changeType, p.previous, p.next, actorID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	r.logger.Debug("audit entries recorded", zap.Int("count", len(entries)))
	return entries, nil
}

type pendingEntry struct {
	entityType domain.EntityType
	entityID   string
	changeType domain.ChangeType
	previous   map[string]any
	next       map[string]any
}

// Writer is the only write path for audited entities. Each method snapshots
// the record around the store write and queues the matching audit entry.
type Writer struct {
	tx      repository.Tx
	pending []pendingEntry
}

// Tx exposes the unit of work for reads.
func (w *Writer) Tx() repository.Tx {
	return w.tx
}

func (w *Writer) queue(entityType domain.EntityType, id string, change domain.ChangeType, previous, next map[string]any) {
	w.pending = append(w.pending, pendingEntry{
		entityType: entityType,
		entityID:   id,
		changeType: change,
		previous:   previous,
		next:       next,
	})
}

// CreateEmployee inserts e.
func (w *Writer) CreateEmployee(ctx context.Context, e *domain.Employee) error {
	if err := w.tx.Employees().Create(ctx, e); err != nil {
		return storeError(err, "employee", map[string]any{"email": e.Email})
	}
	w.queue(domain.EntityEmployee, e.ID, domain.ChangeCreate, nil, e.Snapshot())
	return nil
}

// CreateEmployeeWithState inserts e and records extra fields in the audit
// entry alongside the employee snapshot.
func (w *Writer) CreateEmployeeWithState(ctx context.Context, e *domain.Employee, extra map[string]any) error {
	if err := w.tx.Employees().Create(ctx, e); err != nil {
		return storeError(err, "employee", map[string]any{"email": e.Email})
	}
	next := e.Snapshot()
	for k, v := range extra {
		next[k] = v
	}
	w.queue(domain.EntityEmployee, e.ID, domain.ChangeCreate, nil, next)
	return nil
}

// UpdateEmployee applies mutate to e and persists it when a field changed.
// It reports whether a write happened.
func (w *Writer) UpdateEmployee(ctx context.Context, e *domain.Employee, mutate func(*domain.Employee)) (bool, error) {
	before := e.Snapshot()
	mutate(e)
	after := e.Snapshot()
	if reflect.DeepEqual(before, after) {
		return false, nil
	}
	if err := w.tx.Employees().Update(ctx, e); err != nil {
		return false, storeError(err, "employee", map[string]any{"employee_id": e.ID})
	}
	w.queue(domain.EntityEmployee, e.ID, domain.ChangeUpdate, before, after)
	return true, nil
}

// DeleteEmployee removes e.
func (w *Writer) DeleteEmployee(ctx context.Context, e *domain.Employee) error {
	if err := w.tx.Employees().Delete(ctx, e.ID); err != nil {
		return storeError(err, "employee", map[string]any{"employee_id": e.ID})
	}
	w.queue(domain.EntityEmployee, e.ID, domain.ChangeDelete, e.Snapshot(), nil)
	return nil
}

// CreateTeam inserts t.
func (w *Writer) CreateTeam(ctx context.Context, t *domain.Team) error {
	if err := w.tx.Teams().Create(ctx, t); err != nil {
		return storeError(err, "team", map[string]any{"name": t.Name})
	}
	w.queue(domain.EntityTeam, t.ID, domain.ChangeCreate, nil, t.Snapshot())
	return nil
}

// UpdateTeam applies mutate to t and persists it when a field changed.
func (w *Writer) UpdateTeam(ctx context.Context, t *domain.Team, mutate func(*domain.Team)) (bool, error) {
	before := t.Snapshot()
	mutate(t)
	after := t.Snapshot()
	if reflect.DeepEqual(before, after) {
		return false, nil
	}
	if err := w.tx.Teams().Update(ctx, t); err != nil {
		return false, storeError(err, "team", map[string]any{"team_id": t.ID})
	}
	w.queue(domain.EntityTeam, t.ID, domain.ChangeUpdate, before, after)
	return true, nil
}

// DeleteTeam removes t.
func (w *Writer) DeleteTeam(ctx context.Context, t *domain.Team) error {
	if err := w.tx.Teams().Delete(ctx, t.ID); err != nil {
		return storeError(err, "team", map[string]any{"team_id": t.ID})
	}
	w.queue(domain.EntityTeam, t.ID, domain.ChangeDelete, t.Snapshot(), nil)
	return nil
}

// CreateDepartment inserts d.
func (w *Writer) CreateDepartment(ctx context.Context, d *domain.Department) error {
	if err := w.tx.Departments().Create(ctx, d); err != nil {
		return storeError(err, "department", map[string]any{"name": d.Name})
	}
	w.queue(domain.EntityDepartment, d.ID, domain.ChangeCreate, nil, d.Snapshot())
	return nil
}

// UpdateDepartment applies mutate to d and persists it when a field changed.
func (w *Writer) UpdateDepartment(ctx context.Context, d *domain.Department, mutate func(*domain.Department)) (bool, error) {
	before := d.Snapshot()
	mutate(d)
	after := d.Snapshot()
	if reflect.DeepEqual(before, after) {
		return false, nil
	}
	if err := w.tx.Departments().Update(ctx, d); err != nil {
		return false, storeError(err, "department", map[string]any{"department_id": d.ID})
	}
	w.queue(domain.EntityDepartment, d.ID, domain.ChangeUpdate, before, after)
	return true, nil
}

// DeleteDepartment removes d.
func (w *Writer) DeleteDepartment(ctx context.Context, d *domain.Department) error {
	if err := w.tx.Departments().Delete(ctx, d.ID); err != nil {
		return storeError(err, "department", map[string]any{"department_id": d.ID})
	}
	w.queue(domain.EntityDepartment, d.ID, domain.ChangeDelete, d.Snapshot(), nil)
	return nil
}

// UpdateUser applies mutate to u and persists it when a field changed.
func (w *Writer) UpdateUser(ctx context.Context, u *domain.User, mutate func(*domain.User)) (bool, error) {
	before := u.Snapshot()
	mutate(u)
	after := u.Snapshot()
	if reflect.DeepEqual(before, after) {
		return false, nil
	}
	if err := w.tx.Users().Update(ctx, u); err != nil {
		return false, storeError(err, "user", map[string]any{"user_id": u.ID})
	}
	w.queue(domain.EntityUser, u.ID, domain.ChangeUpdate, before, after)
	return true, nil
}

// AuditLogQuery carries raw audit listing parameters.
type AuditLogQuery struct {
	EntityType      string
	EntityID        string
	ChangeType      string
	ChangedByUserID string
	DateFrom        *time.Time
	DateTo          *time.Time
	Limit           int
	Offset          int
	Order           string
}

// AuditLogPage is one page of audit entries plus the unpaged total.
type AuditLogPage struct {
	Items  []domain.AuditLog
	Total  int
	Limit  int
	Offset int
}

// ListAuditLogs validates q and returns the matching page, newest first unless
// ascending order is requested.
func (r *AuditRecorder) ListAuditLogs(ctx context.Context, tx repository.Tx, q AuditLogQuery) (*AuditLogPage, error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}
	items, total, err := tx.AuditLogs().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.AuditLog{}
	}
	return &AuditLogPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetAuditLog fetches a single entry.
func (r *AuditRecorder) GetAuditLog(ctx context.Context, tx repository.Tx, id string) (*domain.AuditLog, error) {
	entry, err := tx.AuditLogs().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "audit log", map[string]any{"audit_log_id": id})
	}
	return entry, nil
}

func (q AuditLogQuery) toFilter() (repository.AuditLogFilter, error) {
	filter := repository.AuditLogFilter{Limit: q.Limit, Offset: q.Offset}
	fieldErrors := map[string]any{}

	if q.EntityType != "" {
		et := domain.EntityType(strings.ToUpper(q.EntityType))
		if !et.Valid() {
			fieldErrors["entity_type"] = "must be one of EMPLOYEE, DEPARTMENT, TEAM, USER"
		}
		filter.EntityType = &et
	}
	if q.ChangeType != "" {
		ct := domain.ChangeType(strings.ToUpper(q.ChangeType))
		if !ct.Valid() {
			fieldErrors["change_type"] = "must be one of CREATE, UPDATE, DELETE, BULK_UPDATE"
		}
		filter.ChangeType = &ct
	}
	if q.EntityID != "" {
		if !validID(q.EntityID) {
			fieldErrors["entity_id"] = "must be a UUID"
		}
		id := q.EntityID
		filter.EntityID = &id
	}
	if q.ChangedByUserID != "" {
		if !validID(q.ChangedByUserID) {
			fieldErrors["changed_by_user_id"] = "must be a UUID"
		}
		id := q.ChangedByUserID
		filter.ChangedByUserID = &id
	}
	filter.DateFrom = q.DateFrom
	filter.DateTo = q.DateTo
	if q.DateFrom != nil && q.DateTo != nil && !q.DateFrom.Before(*q.DateTo) {
		fieldErrors["date_to"] = "must be after date_from"
	}

	switch {
	case q.Limit == 0:
		filter.Limit = defaultAuditPageSize
	case q.Limit < 1 || q.Limit > maxAuditPageSize:
		fieldErrors["limit"] = fmt.Sprintf("must be between 1 and %d", maxAuditPageSize)
	}
	if q.Offset < 0 {
		fieldErrors["offset"] = "must not be negative"
	}

	switch strings.ToLower(q.Order) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		fieldErrors["order"] = "must be asc or desc"
	}

	if len(fieldErrors) > 0 {
		return filter, apperrors.NewValidationError("invalid audit log query", fieldErrors)
	}
	return filter, nil
}

// validID reports whether id has the shape of a record id.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// storeError maps repository sentinels onto domain errors for resource.
func storeError(err error, resource string, details map[string]any) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewDuplicate(resource+" already exists", details)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewInternalError(err)
}
