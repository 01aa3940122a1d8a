package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// CascadeService deletes records and repairs every reference to them.
// Each delete collects the affected records first, applies all writes, and
// leaves one UPDATE audit entry per touched record plus one DELETE entry.
type CascadeService struct {
	logger   *zap.Logger
	recorder *AuditRecorder
	cycles   *CycleDetector
}

// NewCascadeService constructs the service.
func NewCascadeService(deps Dependencies) *CascadeService {
	deps = deps.withDefaults()
	return &CascadeService{logger: deps.Logger, recorder: deps.Recorder, cycles: deps.Cycles}
}

// DeleteEmployee removes an employee. Direct reports move one level up to the
// employee's manager, teams they lead lose their lead and a linked user is
// unlinked. The CEO cannot be deleted.
func (s *CascadeService) DeleteEmployee(ctx context.Context, tx repository.Tx, actorID *string, employeeID string) (err error) {
	defer func() { recordMutation("delete_employee", err) }()

	target, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return err
	}
	if target.IsCEO() {
		return apperrors.NewInvariantViolation("the CEO cannot be deleted; promote or replace the CEO first", map[string]any{
			"employee_id": target.ID,
		})
	}

	reports, err := tx.Employees().List(ctx, repository.EmployeeFilter{ManagerID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	ledTeams, err := tx.Teams().List(ctx, repository.TeamFilter{LeadID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	user, err := tx.Users().GetByEmployeeID(ctx, target.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.MapError(err)
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		for i := range reports {
			report := &reports[i]
			if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, report.ID, target.ManagerID); err != nil {
				return err
			}
			if _, err := w.UpdateEmployee(ctx, report, func(e *domain.Employee) { e.ManagerID = domain.StringPtr(*target.ManagerID) }); err != nil {
				return err
			}
		}
		for i := range ledTeams {
			if _, err := w.UpdateTeam(ctx, &ledTeams[i], func(t *domain.Team) { t.LeadID = nil }); err != nil {
				return err
			}
		}
		if user != nil {
			if _, err := w.UpdateUser(ctx, user, func(u *domain.User) { u.EmployeeID = nil }); err != nil {
				return err
			}
		}
		return w.DeleteEmployee(ctx, target)
	})
	if err != nil {
		return err
	}

	s.logger.Info("employee deleted",
		zap.String("employee_id", target.ID),
		zap.Int("reassigned_reports", len(reports)),
		zap.Int("cleared_team_leads", len(ledTeams)),
	)
	return nil
}

// DeleteTeam removes a team. Members leave the team and child teams become
// root-level teams.
func (s *CascadeService) DeleteTeam(ctx context.Context, tx repository.Tx, actorID *string, teamID string) (err error) {
	defer func() { recordMutation("delete_team", err) }()

	target, err := getTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	members, err := tx.Employees().List(ctx, repository.EmployeeFilter{TeamID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	children, err := tx.Teams().List(ctx, repository.TeamFilter{ParentTeamID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		for i := range members {
			if _, err := w.UpdateEmployee(ctx, &members[i], func(e *domain.Employee) { e.TeamID = nil }); err != nil {
				return err
			}
		}
		for i := range children {
			if _, err := w.UpdateTeam(ctx, &children[i], func(t *domain.Team) { t.ParentTeamID = nil }); err != nil {
				return err
			}
		}
		return w.DeleteTeam(ctx, target)
	})
	if err != nil {
		return err
	}

	s.logger.Info("team deleted",
		zap.String("team_id", target.ID),
		zap.Int("members_cleared", len(members)),
		zap.Int("children_detached", len(children)),
	)
	return nil
}

// DeleteDepartment removes a department and clears it from employees and teams.
func (s *CascadeService) DeleteDepartment(ctx context.Context, tx repository.Tx, actorID *string, departmentID string) (err error) {
	defer func() { recordMutation("delete_department", err) }()

	target, err := getDepartment(ctx, tx, departmentID)
	if err != nil {
		return err
	}
	employees, err := tx.Employees().List(ctx, repository.EmployeeFilter{DepartmentID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	teams, err := tx.Teams().List(ctx, repository.TeamFilter{DepartmentID: &target.ID})
	if err != nil {
		return apperrors.MapError(err)
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		for i := range employees {
			if _, err := w.UpdateEmployee(ctx, &employees[i], func(e *domain.Employee) { e.DepartmentID = nil }); err != nil {
				return err
			}
		}
		for i := range teams {
			if _, err := w.UpdateTeam(ctx, &teams[i], func(t *domain.Team) { t.DepartmentID = nil }); err != nil {
				return err
			}
		}
		return w.DeleteDepartment(ctx, target)
	})
	if err != nil {
		return err
	}

	s.logger.Info("department deleted",
		zap.String("department_id", target.ID),
		zap.Int("employees_cleared", len(employees)),
		zap.Int("teams_cleared", len(teams)),
	)
	return nil
}
