package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func TestPromoteDirectReport(t *testing.T) {
	f := newFixture(t)
	jane := f.hire("jane", nil)
	john := f.hire("john", jane)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		_, err := f.ceo.PromoteToCEO(f.ctx, tx, f.actor, john.ID)
		return err
	})

	assert.Nil(t, f.employee(john.ID).ManagerID)
	require.NotNil(t, f.employee(jane.ID).ManagerID)
	assert.Equal(t, john.ID, *f.employee(jane.ID).ManagerID)
	assert.Equal(t, before+2, f.auditCount())
	f.assertTree()
}

func TestPromoteMovesFormerCEOReports(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	vp := f.hire("vp", ceo)
	peer := f.hire("peer", ceo)
	target := f.hire("target", vp)
	ownReport := f.hire("own", target)

	f.must(func(tx repository.Tx) error {
		_, err := f.ceo.PromoteToCEO(f.ctx, tx, f.actor, target.ID)
		return err
	})

	assert.Nil(t, f.employee(target.ID).ManagerID)
	assert.Equal(t, target.ID, *f.employee(ceo.ID).ManagerID)
	assert.Equal(t, target.ID, *f.employee(vp.ID).ManagerID)
	assert.Equal(t, target.ID, *f.employee(peer.ID).ManagerID)
	assert.Equal(t, target.ID, *f.employee(ownReport.ID).ManagerID)
	f.assertTree()
}

func TestPromoteSittingCEOIsNoop(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	f.hire("report", ceo)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		_, err := f.ceo.PromoteToCEO(f.ctx, tx, f.actor, ceo.ID)
		return err
	})
	assert.Equal(t, before, f.auditCount())
	f.assertTree()
}

func TestPromoteUnknownEmployee(t *testing.T) {
	f := newFixture(t)
	err := f.run(func(tx repository.Tx) error {
		_, err := f.ceo.PromoteToCEO(f.ctx, tx, f.actor, "missing")
		return err
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestReplaceCEOKeepsFormerReports(t *testing.T) {
	f := newFixture(t)
	old := f.hire("old", nil)
	report := f.hire("report", old)
	u := f.user("new@example.com")

	var replacement *domain.Employee
	f.must(func(tx repository.Tx) error {
		var err error
		replacement, err = f.ceo.ReplaceCEO(f.ctx, tx, f.actor, EmployeeInput{Name: "New", Email: "New@Example.com "})
		return err
	})

	assert.Equal(t, "new@example.com", replacement.Email)
	assert.Nil(t, f.employee(replacement.ID).ManagerID)
	assert.Equal(t, replacement.ID, *f.employee(old.ID).ManagerID)
	assert.Equal(t, old.ID, *f.employee(report.ID).ManagerID)
	require.NotNil(t, f.userByID(u.ID).EmployeeID)
	assert.Equal(t, replacement.ID, *f.userByID(u.ID).EmployeeID)
	f.assertTree()

	logs := f.auditLogs(repository.AuditLogFilter{EntityID: &replacement.ID})
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ChangeCreate, logs[0].ChangeType)
	assert.Nil(t, logs[0].PreviousState)
}

func TestReplaceCEOOnEmptyOrg(t *testing.T) {
	f := newFixture(t)
	f.must(func(tx repository.Tx) error {
		_, err := f.ceo.ReplaceCEO(f.ctx, tx, f.actor, EmployeeInput{Name: "First", Email: "first@example.com"})
		return err
	})
	f.assertTree()
}

func TestReplaceCEORejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.hire("old", nil)

	err := f.run(func(tx repository.Tx) error {
		_, err := f.ceo.ReplaceCEO(f.ctx, tx, f.actor, EmployeeInput{Name: "", Email: "not-an-email"})
		return err
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")

	err = f.run(func(tx repository.Tx) error {
		_, err := f.ceo.ReplaceCEO(f.ctx, tx, f.actor, EmployeeInput{Name: "Dup", Email: "old@example.com"})
		return err
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicate))
	f.assertTree()
}

func TestCEOCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)

	err := f.run(func(tx repository.Tx) error {
		return f.cascade.DeleteEmployee(f.ctx, tx, f.actor, ceo.ID)
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvariant))
	assert.True(t, f.employeeExists(ceo.ID))
}

func TestPromoteThenDeleteFormerCEO(t *testing.T) {
	f := newFixture(t)
	old := f.hire("old", nil)
	successor := f.hire("successor", old)
	other := f.hire("other", old)

	f.must(func(tx repository.Tx) error {
		if _, err := f.ceo.PromoteToCEO(f.ctx, tx, f.actor, successor.ID); err != nil {
			return err
		}
		return f.cascade.DeleteEmployee(f.ctx, tx, f.actor, old.ID)
	})

	assert.False(t, f.employeeExists(old.ID))
	assert.Equal(t, successor.ID, *f.employee(other.ID).ManagerID)
	f.assertTree()
}
