package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func (f *fixture) listEmployees(q EmployeeQuery) *EmployeePage {
	f.t.Helper()
	var page *EmployeePage
	f.must(func(tx repository.Tx) error {
		var err error
		page, err = f.org.ListEmployees(f.ctx, tx, q)
		return err
	})
	return page
}

func (f *fixture) setPay(e *domain.Employee, salary int64, status domain.EmployeeStatus) {
	f.t.Helper()
	f.must(func(tx repository.Tx) error {
		_, err := f.org.UpdateEmployee(f.ctx, tx, f.actor, e.ID, EmployeeUpdate{Salary: &salary, Status: &status})
		return err
	})
}

func names(employees []domain.Employee) []string {
	out := make([]string, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.Name)
	}
	return out
}

func TestListEmployeesFilters(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("zoe", nil)
	alice := f.hire("alice", ceo)
	bob := f.hire("bob", ceo)
	carol := f.hire("carol", alice)
	f.setPay(ceo, 300, domain.EmployeeStatusActive)
	f.setPay(alice, 200, domain.EmployeeStatusActive)
	f.setPay(bob, 100, domain.EmployeeStatusOnLeave)
	f.setPay(carol, 150, domain.EmployeeStatusActive)

	lo, hi := int64(120), int64(250)
	cases := map[string]struct {
		query EmployeeQuery
		want  []string
	}{
		"all by name":  {EmployeeQuery{}, []string{"alice", "bob", "carol", "zoe"}},
		"manager":      {EmployeeQuery{ManagerID: ceo.ID}, []string{"alice", "bob"}},
		"status":       {EmployeeQuery{Status: "on_leave"}, []string{"bob"}},
		"salary range": {EmployeeQuery{MinSalary: &lo, MaxSalary: &hi}, []string{"alice", "carol"}},
		"min only":     {EmployeeQuery{MinSalary: &hi}, []string{"zoe"}},
		"search name":  {EmployeeQuery{Search: "AR"}, []string{"carol"}},
		"search email": {EmployeeQuery{Search: "@EXAMPLE.com"}, []string{"alice", "bob", "carol", "zoe"}},
		"combined":     {EmployeeQuery{ManagerID: ceo.ID, Status: "ACTIVE"}, []string{"alice"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			page := f.listEmployees(tc.query)
			assert.Equal(t, tc.want, names(page.Items))
			assert.Equal(t, len(tc.want), page.Total)
			assert.Equal(t, defaultEmployeePageSize, page.Limit)
		})
	}
}

func TestListEmployeesPaging(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("a", nil)
	for _, name := range []string{"b", "c", "d", "e"} {
		f.hire(name, ceo)
	}

	page := f.listEmployees(EmployeeQuery{Limit: 2, Offset: 1})
	assert.Equal(t, []string{"b", "c"}, names(page.Items))
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)

	page = f.listEmployees(EmployeeQuery{Limit: 2, Offset: 10})
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 5, page.Total)
}

func TestListEmployeesRejectsBadQuery(t *testing.T) {
	f := newFixture(t)
	neg, low, high := int64(-1), int64(10), int64(20)

	cases := map[string]struct {
		query EmployeeQuery
		field string
	}{
		"bad status":      {EmployeeQuery{Status: "RETIRED"}, "status"},
		"negative min":    {EmployeeQuery{MinSalary: &neg}, "min_salary"},
		"inverted range":  {EmployeeQuery{MinSalary: &high, MaxSalary: &low}, "max_salary"},
		"bad manager id":  {EmployeeQuery{ManagerID: "boss"}, "manager_id"},
		"bad team id":     {EmployeeQuery{TeamID: "42"}, "team_id"},
		"limit too large": {EmployeeQuery{Limit: 101}, "limit"},
		"negative offset": {EmployeeQuery{Offset: -1}, "offset"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := f.run(func(tx repository.Tx) error {
				_, err := f.org.ListEmployees(f.ctx, tx, tc.query)
				return err
			})
			require.True(t, apperrors.IsCode(err, apperrors.CodeValidation), err)
			assert.Contains(t, apperrors.ToDomainError(err).Details, tc.field)
		})
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("platform-lead", nil)
	f.hire("sam", ceo)
	platform := f.department("Platform")
	f.department("Sales")
	f.team("platform-core", nil, platform)
	f.team("billing", nil, nil)

	var result *SearchResult
	f.must(func(tx repository.Tx) error {
		var err error
		result, err = f.org.Search(f.ctx, tx, "  PLATFORM ")
		return err
	})
	assert.Equal(t, []string{"platform-lead"}, names(result.Employees))
	require.Len(t, result.Departments, 1)
	assert.Equal(t, "Platform", result.Departments[0].Name)
	require.Len(t, result.Teams, 1)
	assert.Equal(t, "platform-core", result.Teams[0].Name)

	f.must(func(tx repository.Tx) error {
		var err error
		result, err = f.org.Search(f.ctx, tx, "nothing-matches")
		return err
	})
	assert.Empty(t, result.Employees)
	assert.NotNil(t, result.Departments)
	assert.Empty(t, result.Teams)

	err := f.run(func(tx repository.Tx) error {
		_, err := f.org.Search(f.ctx, tx, "   ")
		return err
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestSearchCapsEachGroup(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("member-00", nil)
	for i := 1; i < 15; i++ {
		f.hire(fmt.Sprintf("member-%02d", i), ceo)
	}

	var result *SearchResult
	f.must(func(tx repository.Tx) error {
		var err error
		result, err = f.org.Search(f.ctx, tx, "member")
		return err
	})
	assert.Len(t, result.Employees, searchResultLimit)
	assert.Equal(t, "member-00", result.Employees[0].Name)
}
