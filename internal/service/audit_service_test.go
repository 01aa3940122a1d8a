package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func TestAuditQueryValidation(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	cases := map[string]struct {
		query AuditLogQuery
		field string
	}{
		"bad entity type": {AuditLogQuery{EntityType: "ticket"}, "entity_type"},
		"bad change type": {AuditLogQuery{ChangeType: "RENAME"}, "change_type"},
		"limit too large": {AuditLogQuery{Limit: 101}, "limit"},
		"negative limit":  {AuditLogQuery{Limit: -1}, "limit"},
		"negative offset": {AuditLogQuery{Offset: -1}, "offset"},
		"bad order":       {AuditLogQuery{Order: "sideways"}, "order"},
		"inverted range":  {AuditLogQuery{DateFrom: &from, DateTo: &to}, "date_to"},
		"entity id":       {AuditLogQuery{EntityID: "foo"}, "entity_id"},
		"actor id":        {AuditLogQuery{ChangedByUserID: "actor-1"}, "changed_by_user_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := f.run(func(tx repository.Tx) error {
				_, err := f.recorder.ListAuditLogs(f.ctx, tx, tc.query)
				return err
			})
			require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
			assert.Contains(t, apperrors.ToDomainError(err).Details, tc.field)
		})
	}
}

func TestAuditQueryFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	a := f.hire("a", ceo)
	f.hire("b", ceo)
	f.department("Engineering")
	title := "Staff"
	f.must(func(tx repository.Tx) error {
		_, err := f.org.UpdateEmployee(f.ctx, tx, f.actor, a.ID, EmployeeUpdate{Title: &title})
		return err
	})

	f.must(func(tx repository.Tx) error {
		page, err := f.recorder.ListAuditLogs(f.ctx, tx, AuditLogQuery{})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 25, page.Limit)
		assert.Equal(t, domain.ChangeUpdate, page.Items[0].ChangeType, "newest first")

		page, err = f.recorder.ListAuditLogs(f.ctx, tx, AuditLogQuery{EntityType: "employee", Order: "asc", Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "a@example.com", page.Items[0].NewState["email"])

		page, err = f.recorder.ListAuditLogs(f.ctx, tx, AuditLogQuery{EntityID: a.ID, ChangeType: "update"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)

		got, err := f.recorder.GetAuditLog(f.ctx, tx, page.Items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Staff", got.NewState["title"])

		page, err = f.recorder.ListAuditLogs(f.ctx, tx, AuditLogQuery{ChangedByUserID: "9e8d7c6b-5a49-4837-a261-504f3e2d1c0b"})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.NotNil(t, page.Items)
		return nil
	})

	err := f.run(func(tx repository.Tx) error {
		_, err := f.recorder.GetAuditLog(f.ctx, tx, "missing")
		return err
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAuditRolledBackWithFailedWork(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	before := f.auditCount()
	boom := errors.New("boom")

	err := f.run(func(tx repository.Tx) error {
		if _, err := f.org.CreateEmployee(f.ctx, tx, f.actor, EmployeeInput{Name: "Temp", Email: "temp@example.com", ManagerID: &ceo.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, f.auditCount())
	assert.Len(t, f.auditLogs(repository.AuditLogFilter{}), before)
}

func TestMutateSkipsAuditOnError(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		entries, err := f.recorder.Mutate(f.ctx, tx, f.actor, func(w *Writer) error {
			if _, err := w.UpdateEmployee(f.ctx, ceo, func(e *domain.Employee) { e.Title = "Founder" }); err != nil {
				return err
			}
			return apperrors.NewInvariantViolation("stop", nil)
		})
		assert.Nil(t, entries)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvariant))
		return nil
	})
	// the store write committed because the caller ignored the error, but no
	// audit entry was recorded for it
	assert.Equal(t, before, f.auditCount())
}

func TestSnapshotsDoNotAliasRecords(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	dept := f.department("Engineering")

	var entries []domain.AuditLog
	f.must(func(tx repository.Tx) error {
		var err error
		entries, err = f.recorder.Mutate(f.ctx, tx, f.actor, func(w *Writer) error {
			_, err := w.UpdateEmployee(f.ctx, ceo, func(e *domain.Employee) { e.DepartmentID = domain.StringPtr(dept.ID) })
			return err
		})
		return err
	})
	require.Len(t, entries, 1)

	*ceo.DepartmentID = "changed"
	assert.Equal(t, dept.ID, entries[0].NewState["department_id"])
	assert.Nil(t, entries[0].PreviousState["department_id"])
}

func TestNoopUpdateWritesNothing(t *testing.T) {
	f := newFixture(t)
	ceo := f.hire("ceo", nil)
	before := f.auditCount()

	f.must(func(tx repository.Tx) error {
		_, err := f.recorder.Mutate(context.Background(), tx, f.actor, func(w *Writer) error {
			changed, err := w.UpdateEmployee(f.ctx, ceo, func(e *domain.Employee) { e.Name = "ceo" })
			assert.False(t, changed)
			return err
		})
		return err
	})
	assert.Equal(t, before, f.auditCount())
}
