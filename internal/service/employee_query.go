package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

const (
	defaultEmployeePageSize = 25
	maxEmployeePageSize     = 100
	searchResultLimit       = 10
)

// EmployeeQuery carries raw employee listing parameters.
type EmployeeQuery struct {
	ManagerID    string
	DepartmentID string
	TeamID       string
	Status       string
	MinSalary    *int64
	MaxSalary    *int64
	Search       string
	Limit        int
	Offset       int
}

// EmployeePage is one page of employees plus the unpaged total.
type EmployeePage struct {
	Items  []domain.Employee
	Total  int
	Limit  int
	Offset int
}

// SearchResult groups the matches of a global search.
type SearchResult struct {
	Employees   []domain.Employee
	Departments []domain.Department
	Teams       []domain.Team
}

// ListEmployees validates q and returns the matching page ordered by name.
func (s *OrgService) ListEmployees(ctx context.Context, tx repository.Tx, q EmployeeQuery) (*EmployeePage, error) {
	filter, page, err := q.toFilter()
	if err != nil {
		return nil, err
	}
	items, total, err := tx.Employees().ListPage(ctx, filter, page)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Employee{}
	}
	return &EmployeePage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// Search matches employees by name or email and departments and teams by
// name, ignoring case. Each group holds at most ten results.
func (s *OrgService) Search(ctx context.Context, tx repository.Tx, term string) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("invalid search", map[string]any{"q": "is required"})
	}

	employees, _, err := tx.Employees().ListPage(ctx, repository.EmployeeFilter{Search: term}, repository.Page{Limit: searchResultLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	departments, err := tx.Departments().SearchByName(ctx, term, searchResultLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	teams, err := tx.Teams().SearchByName(ctx, term, searchResultLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &SearchResult{Employees: employees, Departments: departments, Teams: teams}
	if result.Employees == nil {
		result.Employees = []domain.Employee{}
	}
	if result.Departments == nil {
		result.Departments = []domain.Department{}
	}
	if result.Teams == nil {
		result.Teams = []domain.Team{}
	}
	return result, nil
}

func (q EmployeeQuery) toFilter() (repository.EmployeeFilter, repository.Page, error) {
	filter := repository.EmployeeFilter{Search: strings.TrimSpace(q.Search)}
	page := repository.Page{Limit: q.Limit, Offset: q.Offset}
	fieldErrors := map[string]any{}

	for field, ref := range map[string]struct {
		raw string
		dst **string
	}{
		"manager_id":    {q.ManagerID, &filter.ManagerID},
		"department_id": {q.DepartmentID, &filter.DepartmentID},
		"team_id":       {q.TeamID, &filter.TeamID},
	} {
		if ref.raw == "" {
			continue
		}
		if !validID(ref.raw) {
			fieldErrors[field] = "must be a UUID"
		}
		id := ref.raw
		*ref.dst = &id
	}

	if q.Status != "" {
		status := domain.EmployeeStatus(strings.ToUpper(q.Status))
		if !status.Valid() {
			fieldErrors["status"] = "must be one of ACTIVE, ON_LEAVE"
		}
		filter.Status = &status
	}
	if q.MinSalary != nil && *q.MinSalary < 0 {
		fieldErrors["min_salary"] = "must not be negative"
	}
	if q.MaxSalary != nil && *q.MaxSalary < 0 {
		fieldErrors["max_salary"] = "must not be negative"
	}
	if q.MinSalary != nil && q.MaxSalary != nil && *q.MinSalary > *q.MaxSalary {
		fieldErrors["max_salary"] = "must not be below min_salary"
	}
	filter.MinSalary = q.MinSalary
	filter.MaxSalary = q.MaxSalary

	switch {
	case q.Limit == 0:
		page.Limit = defaultEmployeePageSize
	case q.Limit < 1 || q.Limit > maxEmployeePageSize:
		fieldErrors["limit"] = fmt.Sprintf("must be between 1 and %d", maxEmployeePageSize)
	}
	if q.Offset < 0 {
		fieldErrors["offset"] = "must not be negative"
	}

	if len(fieldErrors) > 0 {
		return filter, page, apperrors.NewValidationError("invalid employee query", fieldErrors)
	}
	return filter, page, nil
}
