package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/repository/memstore"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memstore.Store
	recorder *AuditRecorder
	cycles   *CycleDetector
	org      *OrgService
	ceo      *CEOService
	cascade  *CascadeService
	imports  *ImportService
	actor    *string
}

const testActorID = "4c9a1f3e-8b2d-4e6a-9c1b-7d5e3f2a1b0c"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	deps := Dependencies{
		Logger:   logger,
		Recorder: NewAuditRecorder(logger),
		Cycles:   NewCycleDetector(),
	}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memstore.New(),
		recorder: deps.Recorder,
		cycles:   deps.Cycles,
		org:      NewOrgService(deps),
		ceo:      NewCEOService(deps),
		cascade:  NewCascadeService(deps),
		imports:  NewImportService(deps),
		actor:    domain.StringPtr(testActorID),
	}
}

// run executes fn in a unit of work that commits only on success.
func (f *fixture) run(fn func(tx repository.Tx) error) error {
	return repository.RunInTx(f.ctx, f.store, fn)
}

// must executes fn and fails the test on error.
func (f *fixture) must(fn func(tx repository.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.run(fn))
}

func (f *fixture) hire(name string, manager *domain.Employee) *domain.Employee {
	f.t.Helper()
	in := EmployeeInput{Name: name, Email: name + "@example.com"}
	if manager != nil {
		in.ManagerID = domain.StringPtr(manager.ID)
	}
	var e *domain.Employee
	f.must(func(tx repository.Tx) error {
		var err error
		e, err = f.org.CreateEmployee(f.ctx, tx, f.actor, in)
		return err
	})
	return e
}

func (f *fixture) department(name string) *domain.Department {
	f.t.Helper()
	var d *domain.Department
	f.must(func(tx repository.Tx) error {
		var err error
		d, err = f.org.CreateDepartment(f.ctx, tx, f.actor, name)
		return err
	})
	return d
}

func (f *fixture) team(name string, parent *domain.Team, dept *domain.Department) *domain.Team {
	f.t.Helper()
	in := TeamInput{Name: name}
	if parent != nil {
		in.ParentTeamID = domain.StringPtr(parent.ID)
	}
	if dept != nil {
		in.DepartmentID = domain.StringPtr(dept.ID)
	}
	var team *domain.Team
	f.must(func(tx repository.Tx) error {
		var err error
		team, err = f.org.CreateTeam(f.ctx, tx, f.actor, in)
		return err
	})
	return team
}

func (f *fixture) user(email string) *domain.User {
	f.t.Helper()
	u := &domain.User{ID: "user-" + email, Email: email, Name: email}
	f.must(func(tx repository.Tx) error {
		return tx.Users().Create(f.ctx, u)
	})
	return u
}

func (f *fixture) employee(id string) *domain.Employee {
	f.t.Helper()
	var e *domain.Employee
	f.must(func(tx repository.Tx) error {
		var err error
		e, err = tx.Employees().GetByID(f.ctx, id)
		return err
	})
	return e
}

func (f *fixture) employeeExists(id string) bool {
	f.t.Helper()
	found := true
	f.must(func(tx repository.Tx) error {
		_, err := tx.Employees().GetByID(f.ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			found = false
			return nil
		}
		return err
	})
	return found
}

func (f *fixture) teamByID(id string) *domain.Team {
	f.t.Helper()
	var team *domain.Team
	f.must(func(tx repository.Tx) error {
		var err error
		team, err = tx.Teams().GetByID(f.ctx, id)
		return err
	})
	return team
}

func (f *fixture) userByID(id string) *domain.User {
	f.t.Helper()
	var u *domain.User
	f.must(func(tx repository.Tx) error {
		var err error
		u, err = tx.Users().GetByID(f.ctx, id)
		return err
	})
	return u
}

func (f *fixture) auditLogs(filter repository.AuditLogFilter) []domain.AuditLog {
	f.t.Helper()
	filter.Ascending = true
	if filter.Limit == 0 {
		filter.Limit = 1000
	}
	var items []domain.AuditLog
	f.must(func(tx repository.Tx) error {
		var err error
		items, _, err = tx.AuditLogs().List(f.ctx, filter)
		return err
	})
	return items
}

func (f *fixture) auditCount() int {
	f.t.Helper()
	var total int
	f.must(func(tx repository.Tx) error {
		var err error
		_, total, err = tx.AuditLogs().List(f.ctx, repository.AuditLogFilter{Limit: 1})
		return err
	})
	return total
}

// assertTree checks that exactly one employee has no manager and every other
// employee reaches it without revisiting a node.
func (f *fixture) assertTree() {
	f.t.Helper()
	var all []domain.Employee
	f.must(func(tx repository.Tx) error {
		var err error
		all, err = tx.Employees().List(f.ctx, repository.EmployeeFilter{})
		return err
	})
	if len(all) == 0 {
		return
	}
	byID := map[string]domain.Employee{}
	roots := 0
	for _, e := range all {
		byID[e.ID] = e
		if e.ManagerID == nil {
			roots++
		}
	}
	require.Equal(f.t, 1, roots, "expected exactly one CEO")
	for _, e := range all {
		seen := map[string]bool{}
		current := e
		for current.ManagerID != nil {
			require.False(f.t, seen[current.ID], "cycle through %s", current.ID)
			seen[current.ID] = true
			next, ok := byID[*current.ManagerID]
			require.True(f.t, ok, "dangling manager %s", *current.ManagerID)
			current = next
		}
	}
}
