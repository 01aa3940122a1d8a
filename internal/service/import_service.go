package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// ImportOptions tunes a bulk import.
type ImportOptions struct {
	// DryRun validates and orders the rows without writing anything.
	DryRun bool
	// MaxRows rejects larger batches when positive.
	MaxRows int
}

// FailedRow describes why a row was rejected. Batch-level failures use row 0.
type FailedRow struct {
	RowNumber    int               `json:"row_number"`
	Email        string            `json:"email,omitempty"`
	ErrorMessage string            `json:"error_message"`
	RowData      map[string]string `json:"row_data,omitempty"`
}

// ImportResult reports the outcome of a bulk import. Any failure means nothing
// was written.
type ImportResult struct {
	BatchID            string      `json:"batch_id"`
	DryRun             bool        `json:"dry_run"`
	TotalRows          int         `json:"total_rows"`
	SuccessfulImports  int         `json:"successful_imports"`
	FailedRows         []FailedRow `json:"failed_rows"`
	CreatedEmployeeIDs []string    `json:"created_employee_ids"`
	PlannedOrder       []string    `json:"planned_order,omitempty"`
	Warnings           []string    `json:"warnings"`
}

// Failed reports whether the import was rejected.
func (r *ImportResult) Failed() bool {
	return len(r.FailedRows) > 0
}

// ImportService creates employees in bulk, managers before their reports.
type ImportService struct {
	logger   *zap.Logger
	recorder *AuditRecorder
	cycles   *CycleDetector
}

// NewImportService constructs the service.
func NewImportService(deps Dependencies) *ImportService {
	deps = deps.withDefaults()
	return &ImportService{logger: deps.Logger, recorder: deps.Recorder, cycles: deps.Cycles}
}

type importRecord struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	ManagerEmail string `json:"manager_email" validate:"omitempty,email"`
	Status       string `json:"status" validate:"omitempty,oneof=ACTIVE ON_LEAVE"`
}

// plannedRow is a row that passed field validation, with references resolved.
type plannedRow struct {
	row          domain.ImportRow
	email        string
	managerEmail string
	record       *domain.Employee
	errs         []string
}

// ImportEmployees validates every row, rejects the batch on any failure and
// otherwise creates the employees in dependency order inside tx.
func (s *ImportService) ImportEmployees(ctx context.Context, tx repository.Tx, actorID *string, rows []domain.ImportRow, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		BatchID:            uuid.NewString(),
		DryRun:             opts.DryRun,
		TotalRows:          len(rows),
		FailedRows:         []FailedRow{},
		CreatedEmployeeIDs: []string{},
		Warnings:           []string{},
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("import contains no rows", nil)
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		return nil, apperrors.NewValidationError("import exceeds the maximum number of rows", map[string]any{
			"max_rows": opts.MaxRows,
			"rows":     len(rows),
		})
	}

	planned, err := s.validateRows(ctx, tx, rows)
	if err != nil {
		return nil, err
	}
	for _, p := range planned {
		if len(p.errs) > 0 {
			result.FailedRows = append(result.FailedRows, FailedRow{
				RowNumber:    p.row.RowNumber,
				Email:        p.email,
				ErrorMessage: strings.Join(p.errs, "; "),
				RowData:      p.row.Data(),
			})
		}
	}
	for _, cycle := range findManagerCycles(planned) {
		result.FailedRows = append(result.FailedRows, FailedRow{
			RowNumber:    0,
			ErrorMessage: "circular manager chain: " + strings.Join(cycle, " -> "),
		})
	}
	if result.Failed() {
		recordImportRows("rejected", len(rows))
		s.logger.Info("bulk import rejected",
			zap.String("batch_id", result.BatchID),
			zap.Int("rows", len(rows)),
			zap.Int("failures", len(result.FailedRows)),
		)
		return result, nil
	}

	order, err := topologicalOrder(planned)
	if err != nil {
		result.FailedRows = append(result.FailedRows, FailedRow{RowNumber: 0, ErrorMessage: err.Error()})
		recordImportRows("rejected", len(rows))
		return result, nil
	}
	for _, p := range order {
		result.PlannedOrder = append(result.PlannedOrder, p.email)
	}
	if opts.DryRun {
		s.logger.Info("bulk import dry run passed", zap.String("batch_id", result.BatchID), zap.Int("rows", len(rows)))
		return result, nil
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		created := map[string]string{}
		for _, p := range order {
			e := p.record
			e.ID = uuid.NewString()
			if p.managerEmail != "" {
				managerID, ok := created[p.managerEmail]
				if !ok {
					manager, err := tx.Employees().GetByEmail(ctx, p.managerEmail)
					if err != nil {
						return storeError(err, "manager", map[string]any{"email": p.managerEmail})
					}
					managerID = manager.ID
				}
				e.ManagerID = domain.StringPtr(managerID)
				if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, e.ID, e.ManagerID); err != nil {
					return err
				}
			}
			if err := w.CreateEmployeeWithState(ctx, e, map[string]any{"import_batch_id": result.BatchID}); err != nil {
				return err
			}
			created[p.email] = e.ID
			result.CreatedEmployeeIDs = append(result.CreatedEmployeeIDs, e.ID)

			warning, err := linkUser(ctx, w, e)
			if err != nil {
				return err
			}
			if warning != "" {
				result.Warnings = append(result.Warnings, warning)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.SuccessfulImports = len(result.CreatedEmployeeIDs)
	recordImportRows("imported", result.SuccessfulImports)
	s.logger.Info("bulk import applied",
		zap.String("batch_id", result.BatchID),
		zap.Int("created", result.SuccessfulImports),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// validateRows checks each row in two passes: field and reference checks
// first, then manager references once every batch email is known.
func (s *ImportService) validateRows(ctx context.Context, tx repository.Tx, rows []domain.ImportRow) ([]*plannedRow, error) {
	existing, err := tx.Employees().Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	departments := map[string]*domain.Department{}
	teams := map[string]*domain.Team{}
	firstByEmail := map[string]int{}

	planned := make([]*plannedRow, 0, len(rows))
	for i, row := range rows {
		if row.RowNumber == 0 {
			row.RowNumber = i + 1
		}
		p := &plannedRow{
			row:          row,
			email:        normalizeEmail(row.Email),
			managerEmail: normalizeEmail(row.ManagerEmail),
		}
		planned = append(planned, p)

		rec := importRecord{
			Name:         strings.TrimSpace(row.Name),
			Email:        p.email,
			ManagerEmail: p.managerEmail,
			Status:       strings.ToUpper(strings.TrimSpace(row.Status)),
		}
		if err := validateStruct("invalid row", rec); err != nil {
			p.errs = append(p.errs, fieldMessages(err)...)
		}

		e := &domain.Employee{
			Name:   rec.Name,
			Email:  p.email,
			Title:  strings.TrimSpace(row.Title),
			Status: domain.EmployeeStatus(rec.Status),
		}
		if e.Status == "" {
			e.Status = domain.EmployeeStatusActive
		}
		p.record = e

		if p.email != "" {
			if first, dup := firstByEmail[p.email]; dup {
				p.errs = append(p.errs, fmt.Sprintf("duplicate email in import (first seen in row %d)", first))
			} else {
				firstByEmail[p.email] = row.RowNumber
				if err := ensureEmailAvailable(ctx, tx, p.email); err != nil {
					if !apperrors.IsCode(err, apperrors.CodeDuplicate) {
						return nil, err
					}
					p.errs = append(p.errs, "email already exists: "+p.email)
				}
			}
			if p.managerEmail == p.email {
				p.errs = append(p.errs, "employee cannot be their own manager")
			}
		}

		if v := strings.TrimSpace(row.HiredOn); v != "" {
			hired, err := time.Parse(domain.DateLayout, v)
			if err != nil {
				p.errs = append(p.errs, "hired_on must be a date in YYYY-MM-DD format")
			} else {
				e.HiredOn = &hired
			}
		}
		if v := strings.TrimSpace(row.Salary); v != "" {
			salary, err := strconv.ParseInt(v, 10, 64)
			switch {
			case err != nil:
				p.errs = append(p.errs, "salary must be a whole number")
			case salary < 0:
				p.errs = append(p.errs, "salary must not be negative")
			default:
				e.Salary = &salary
			}
		}

		if name := strings.TrimSpace(row.DepartmentName); name != "" {
			dept, err := lookupDepartment(ctx, tx, departments, name)
			if err != nil {
				return nil, err
			}
			if dept == nil {
				p.errs = append(p.errs, "department not found: "+name)
			} else {
				e.DepartmentID = domain.StringPtr(dept.ID)
			}
		}
		if name := strings.TrimSpace(row.TeamName); name != "" {
			team, err := lookupTeam(ctx, tx, teams, name)
			if err != nil {
				return nil, err
			}
			switch {
			case team == nil:
				p.errs = append(p.errs, "team not found: "+name)
			case team.DepartmentID != nil && e.DepartmentID != nil && *team.DepartmentID != *e.DepartmentID:
				p.errs = append(p.errs, fmt.Sprintf("team %s belongs to a different department", name))
			default:
				e.TeamID = domain.StringPtr(team.ID)
				if team.DepartmentID != nil {
					e.DepartmentID = domain.StringPtr(*team.DepartmentID)
				}
			}
		}
	}

	roots := 0
	for _, p := range planned {
		if p.managerEmail == "" {
			roots++
			switch {
			case existing > 0:
				p.errs = append(p.errs, "manager_email is required; the organization already has a CEO")
			case roots > 1:
				p.errs = append(p.errs, "only one employee without a manager (the CEO) may be imported")
			}
			continue
		}
		if _, inBatch := firstByEmail[p.managerEmail]; inBatch {
			continue
		}
		_, err := tx.Employees().GetByEmail(ctx, p.managerEmail)
		if errors.Is(err, repository.ErrNotFound) {
			p.errs = append(p.errs, "manager not found: "+p.managerEmail)
			continue
		}
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return planned, nil
}

// findManagerCycles reports every loop formed by manager references between
// batch rows. Each row has at most one manager, so walks are followed
// iteratively with an explicit path stack.
func findManagerCycles(planned []*plannedRow) [][]string {
	next := map[string]string{}
	var emails []string
	for _, p := range planned {
		if p.email == "" {
			continue
		}
		if _, dup := next[p.email]; dup {
			continue
		}
		next[p.email] = ""
		emails = append(emails, p.email)
	}
	for _, p := range planned {
		if p.email == "" || p.managerEmail == "" || p.managerEmail == p.email {
			continue
		}
		if _, inBatch := next[p.managerEmail]; inBatch && next[p.email] == "" {
			next[p.email] = p.managerEmail
		}
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := map[string]int{}
	var cycles [][]string
	for _, start := range emails {
		if state[start] != unvisited {
			continue
		}
		var path []string
		position := map[string]int{}
		current := start
		for current != "" && state[current] == unvisited {
			state[current] = onPath
			position[current] = len(path)
			path = append(path, current)
			current = next[current]
		}
		if current != "" && state[current] == onPath {
			cycle := append([]string{}, path[position[current]:]...)
			cycles = append(cycles, append(cycle, current))
		}
		for _, email := range path {
			state[email] = done
		}
	}
	return cycles
}

// topologicalOrder applies Kahn's algorithm to batch rows: a row is ready once
// its manager is outside the batch or already ordered. Ties keep input order.
func topologicalOrder(planned []*plannedRow) ([]*plannedRow, error) {
	byEmail := make(map[string]*plannedRow, len(planned))
	for _, p := range planned {
		byEmail[p.email] = p
	}
	inDegree := make(map[string]int, len(planned))
	reports := map[string][]*plannedRow{}
	for _, p := range planned {
		inDegree[p.email] = 0
		if _, inBatch := byEmail[p.managerEmail]; inBatch && p.managerEmail != "" {
			inDegree[p.email] = 1
			reports[p.managerEmail] = append(reports[p.managerEmail], p)
		}
	}

	queue := make([]*plannedRow, 0, len(planned))
	for _, p := range planned {
		if inDegree[p.email] == 0 {
			queue = append(queue, p)
		}
	}

	order := make([]*plannedRow, 0, len(planned))
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		order = append(order, p)
		for _, report := range reports[p.email] {
			inDegree[report.email]--
			if inDegree[report.email] == 0 {
				queue = append(queue, report)
			}
		}
	}

	if len(order) < len(planned) {
		var stuck []string
		for email, degree := range inDegree {
			if degree > 0 {
				stuck = append(stuck, email)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("circular manager chain among: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

func lookupDepartment(ctx context.Context, tx repository.Tx, cache map[string]*domain.Department, name string) (*domain.Department, error) {
	if dept, ok := cache[name]; ok {
		return dept, nil
	}
	dept, err := tx.Departments().GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		cache[name] = nil
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	cache[name] = dept
	return dept, nil
}

func lookupTeam(ctx context.Context, tx repository.Tx, cache map[string]*domain.Team, name string) (*domain.Team, error) {
	if team, ok := cache[name]; ok {
		return team, nil
	}
	team, err := tx.Teams().GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		cache[name] = nil
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	cache[name] = team
	return team, nil
}

// fieldMessages flattens validation details into "field message" strings.
func fieldMessages(err error) []string {
	domainErr := apperrors.ToDomainError(err)
	if len(domainErr.Details) == 0 {
		return []string{domainErr.Message}
	}
	keys := make([]string, 0, len(domainErr.Details))
	for k := range domainErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, fmt.Sprintf("%s %v", k, domainErr.Details[k]))
	}
	return messages
}
