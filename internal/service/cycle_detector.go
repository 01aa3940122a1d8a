package service

import (
	"context"
	"errors"

	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// GraphKind selects which parent reference the cycle detector follows.
type GraphKind string

const (
	GraphEmployeeManager GraphKind = "employee_manager"
	GraphTeamParent      GraphKind = "team_parent"
)

// CycleDetector answers whether re-parenting a node would close a loop.
type CycleDetector struct{}

// NewCycleDetector constructs a detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{}
}

// WouldCreateCycle walks parent references upward from proposedParentID. It
// reports a cycle when the walk reaches nodeID, or when it revisits a node,
// which means the stored graph already contains a loop. The returned chain
// starts at nodeID and lists the walked ids in order.
func (d *CycleDetector) WouldCreateCycle(ctx context.Context, tx repository.Tx, kind GraphKind, nodeID string, proposedParentID *string) ([]string, bool, error) {
	if proposedParentID == nil {
		return nil, false, nil
	}

	chain := []string{nodeID}
	visited := map[string]struct{}{}
	current := *proposedParentID
	for {
		chain = append(chain, current)
		if current == nodeID {
			return chain, true, nil
		}
		if _, seen := visited[current]; seen {
			return chain, true, nil
		}
		visited[current] = struct{}{}

		parent, err := d.parentOf(ctx, tx, kind, current)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if parent == nil {
			return nil, false, nil
		}
		current = *parent
	}
}

// Check returns a cycle error when the assignment would close a loop.
func (d *CycleDetector) Check(ctx context.Context, tx repository.Tx, kind GraphKind, nodeID string, proposedParentID *string) error {
	chain, cyclic, err := d.WouldCreateCycle(ctx, tx, kind, nodeID, proposedParentID)
	if err != nil {
		return err
	}
	if cyclic {
		return apperrors.NewCycleError(string(kind), chain)
	}
	return nil
}

func (d *CycleDetector) parentOf(ctx context.Context, tx repository.Tx, kind GraphKind, id string) (*string, error) {
	switch kind {
	case GraphTeamParent:
		team, err := tx.Teams().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return team.ParentTeamID, nil
	default:
		employee, err := tx.Employees().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return employee.ManagerID, nil
	}
}
