package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

func TestWouldCreateCycleEmployees(t *testing.T) {
	f := newFixture(t)
	a := f.hire("a", nil)
	b := f.hire("b", a)
	c := f.hire("c", b)
	other := f.hire("other", a)

	f.must(func(tx repository.Tx) error {
		chain, cyclic, err := f.cycles.WouldCreateCycle(f.ctx, tx, GraphEmployeeManager, a.ID, &c.ID)
		require.NoError(t, err)
		assert.True(t, cyclic)
		assert.Equal(t, []string{a.ID, c.ID, b.ID, a.ID}, chain)

		_, cyclic, err = f.cycles.WouldCreateCycle(f.ctx, tx, GraphEmployeeManager, c.ID, &other.ID)
		require.NoError(t, err)
		assert.False(t, cyclic)

		_, cyclic, err = f.cycles.WouldCreateCycle(f.ctx, tx, GraphEmployeeManager, c.ID, nil)
		require.NoError(t, err)
		assert.False(t, cyclic)
		return nil
	})
}

func TestSelfParentIsCycle(t *testing.T) {
	f := newFixture(t)
	a := f.hire("a", nil)

	f.must(func(tx repository.Tx) error {
		chain, cyclic, err := f.cycles.WouldCreateCycle(f.ctx, tx, GraphEmployeeManager, a.ID, &a.ID)
		require.NoError(t, err)
		assert.True(t, cyclic)
		assert.Equal(t, []string{a.ID, a.ID}, chain)

		err = f.cycles.Check(f.ctx, tx, GraphEmployeeManager, a.ID, &a.ID)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeCycle))
		return nil
	})
}

func TestExistingLoopIsReportedAsCycle(t *testing.T) {
	f := newFixture(t)
	f.must(func(tx repository.Tx) error {
		x, y := "x", "y"
		require.NoError(t, tx.Employees().Create(f.ctx, &domain.Employee{ID: x, Email: "x@example.com", ManagerID: &y}))
		require.NoError(t, tx.Employees().Create(f.ctx, &domain.Employee{ID: y, Email: "y@example.com", ManagerID: &x}))
		require.NoError(t, tx.Employees().Create(f.ctx, &domain.Employee{ID: "z", Email: "z@example.com"}))
		return nil
	})

	f.must(func(tx repository.Tx) error {
		x := "x"
		chain, cyclic, err := f.cycles.WouldCreateCycle(f.ctx, tx, GraphEmployeeManager, "z", &x)
		require.NoError(t, err)
		assert.True(t, cyclic)
		assert.Equal(t, []string{"z", "x", "y", "x"}, chain)
		return nil
	})
}

func TestWouldCreateCycleTeams(t *testing.T) {
	f := newFixture(t)
	root := f.team("root", nil, nil)
	child := f.team("child", root, nil)
	leaf := f.team("leaf", child, nil)

	f.must(func(tx repository.Tx) error {
		_, cyclic, err := f.cycles.WouldCreateCycle(f.ctx, tx, GraphTeamParent, root.ID, &leaf.ID)
		require.NoError(t, err)
		assert.True(t, cyclic)

		_, cyclic, err = f.cycles.WouldCreateCycle(f.ctx, tx, GraphTeamParent, leaf.ID, &root.ID)
		require.NoError(t, err)
		assert.False(t, cyclic)
		return nil
	})
}
