package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func TestDeleteEmployeeReassignsReports(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	u := f.user("mgr@example.com")
	mgr := f.hire("mgr", ceo)
	r1 := f.hire("r1", mgr)
	r2 := f.hire("r2", mgr)
	squad := f.team("squad", nil, nil)

	f.must(func(tx repository.Tx) error {
		if _, err := f.org.AssignTeam(f.ctx, tx, f.actor, mgr.ID, &squad.ID); err != nil {
			return err
		}
		_, err := f.org.SetTeamLead(f.ctx, tx, f.actor, squad.ID, &mgr.ID)
		return err
	})
	require.Equal(t, mgr.ID, *f.userByID(u.ID).EmployeeID)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		return f.cascade.DeleteEmployee(f.ctx, tx, f.actor, mgr.ID)
	})

	assert.False(t, f.employeeExists(mgr.ID))
	assert.Equal(t, ceo.ID, *f.employee(r1.ID).ManagerID)
	assert.Equal(t, ceo.ID, *f.employee(r2.ID).ManagerID)
	assert.Nil(t, f.teamByID(squad.ID).LeadID)
	assert.Nil(t, f.userByID(u.ID).EmployeeID)
	f.assertTree()

	// two reports, one team, one user, one delete
	assert.Equal(t, before+5, f.auditCount())
	logs := f.auditLogs(repository.AuditLogFilter{EntityID: &mgr.ID, ChangeType: changeTypePtr(domain.ChangeDelete)})
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].NewState)
	assert.Equal(t, "mgr@example.com", logs[0].PreviousState["email"])
}

func TestDeleteLeafEmployee(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	leaf := f.hire("leaf", ceo)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		return f.cascade.DeleteEmployee(f.ctx, tx, f.actor, leaf.ID)
	})
	assert.False(t, f.employeeExists(leaf.ID))
	assert.Equal(t, before+1, f.auditCount())
}

func TestDeleteMissingEmployee(t *testing.T) {
	f := newFixture(t)
	err := f.run(func(tx repository.Tx) error {
		return f.cascade.DeleteEmployee(f.ctx, tx, f.actor, "missing")
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteTeamDetachesMembersAndChildren(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	parent := f.team("parent", nil, nil)
	child := f.team("child", parent, nil)
	grandchild := f.team("grandchild", child, nil)
	f.must(func(tx repository.Tx) error {
		_, err := f.org.AssignTeam(f.ctx, tx, f.actor, ceo.ID, &child.ID)
		return err
	})
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		return f.cascade.DeleteTeam(f.ctx, tx, f.actor, child.ID)
	})

	assert.Nil(t, f.employee(ceo.ID).TeamID)
	assert.Nil(t, f.teamByID(grandchild.ID).ParentTeamID)
	assert.Nil(t, f.teamByID(parent.ID).ParentTeamID)
	assert.Equal(t, before+3, f.auditCount())
}

func TestDeleteDepartmentClearsReferences(t *testing.T) {
	f := newFixture(t)
	eng := f.department("Engineering")
	ceo := f.hire("ceo", nil)
	platform := f.team("platform", nil, eng)
	f.must(func(tx repository.Tx) error {
		_, err := f.org.AssignTeam(f.ctx, tx, f.actor, ceo.ID, &platform.ID)
		return err
	})
	require.Equal(t, eng.ID, *f.employee(ceo.ID).DepartmentID)

	f.must(func(tx repository.Tx) error {
		return f.cascade.DeleteDepartment(f.ctx, tx, f.actor, eng.ID)
	})

	assert.Nil(t, f.employee(ceo.ID).DepartmentID)
	assert.Equal(t, platform.ID, *f.employee(ceo.ID).TeamID)
	assert.Nil(t, f.teamByID(platform.ID).DepartmentID)

	logs := f.auditLogs(repository.AuditLogFilter{EntityType: entityTypePtr(domain.EntityDepartment)})
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ChangeCreate, logs[0].ChangeType)
	assert.Equal(t, domain.ChangeDelete, logs[1].ChangeType)
}

func changeTypePtr(c domain.ChangeType) *domain.ChangeType { return &c }

func entityTypePtr(e domain.EntityType) *domain.EntityType { return &e }
