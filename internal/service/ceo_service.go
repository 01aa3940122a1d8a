package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
)

// CEOService keeps exactly one employee at the root of the reporting tree.
//
// Promotion and replacement treat the former CEO's direct reports differently:
// promoting an existing employee moves them under the new CEO, while replacing
// the CEO with a new hire leaves them with the former CEO.
type CEOService struct {
	logger   *zap.Logger
	recorder *AuditRecorder
	cycles   *CycleDetector
}

// NewCEOService constructs the service.
func NewCEOService(deps Dependencies) *CEOService {
	deps = deps.withDefaults()
	return &CEOService{logger: deps.Logger, recorder: deps.Recorder, cycles: deps.Cycles}
}

// PromoteToCEO makes an existing employee the root. The promoted employee
// keeps their own reports, the current CEO reports to them and the current
// CEO's other direct reports move under them. Promoting the sitting CEO is a
// no-op.
func (s *CEOService) PromoteToCEO(ctx context.Context, tx repository.Tx, actorID *string, employeeID string) (employee *domain.Employee, err error) {
	defer func() { recordMutation("promote_ceo", err) }()

	target, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return nil, err
	}
	if target.IsCEO() {
		s.logger.Debug("employee already CEO", zap.String("employee_id", target.ID))
		return target, nil
	}
	current, err := currentCEO(ctx, tx)
	if err != nil {
		return nil, err
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		if _, err := w.UpdateEmployee(ctx, target, func(e *domain.Employee) { e.ManagerID = nil }); err != nil {
			return err
		}
		if current == nil {
			return nil
		}

		reports, err := tx.Employees().List(ctx, repository.EmployeeFilter{ManagerID: &current.ID})
		if err != nil {
			return err
		}
		for i := range reports {
			report := &reports[i]
			if report.ID == target.ID {
				continue
			}
			if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, report.ID, &target.ID); err != nil {
				return err
			}
			if _, err := w.UpdateEmployee(ctx, report, func(e *domain.Employee) { e.ManagerID = domain.StringPtr(target.ID) }); err != nil {
				return err
			}
		}

		if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, current.ID, &target.ID); err != nil {
			return err
		}
		_, err = w.UpdateEmployee(ctx, current, func(e *domain.Employee) { e.ManagerID = domain.StringPtr(target.ID) })
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("employee_id", target.ID)}
	if current != nil {
		fields = append(fields, zap.String("former_ceo_id", current.ID))
	}
	s.logger.Info("employee promoted to CEO", fields...)
	return target, nil
}

// ReplaceCEO creates a new employee as the root. The former CEO reports to the
// new one and keeps their own direct reports. With an empty org this creates
// the first CEO.
func (s *CEOService) ReplaceCEO(ctx context.Context, tx repository.Tx, actorID *string, in EmployeeInput) (employee *domain.Employee, err error) {
	defer func() { recordMutation("replace_ceo", err) }()

	in.normalize()
	in.ManagerID = nil
	if err := validateStruct("invalid CEO payload", in); err != nil {
		return nil, err
	}
	if err := ensureEmailAvailable(ctx, tx, in.Email); err != nil {
		return nil, err
	}
	departmentID, err := resolvePlacement(ctx, tx, in.DepartmentID, in.TeamID)
	if err != nil {
		return nil, err
	}
	current, err := currentCEO(ctx, tx)
	if err != nil {
		return nil, err
	}

	ceo := &domain.Employee{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Title:        in.Title,
		HiredOn:      in.HiredOn,
		Salary:       in.Salary,
		Status:       in.Status,
		DepartmentID: departmentID,
		TeamID:       in.TeamID,
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		if err := w.CreateEmployee(ctx, ceo); err != nil {
			return err
		}
		if current != nil {
			if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, current.ID, &ceo.ID); err != nil {
				return err
			}
			if _, err := w.UpdateEmployee(ctx, current, func(e *domain.Employee) { e.ManagerID = domain.StringPtr(ceo.ID) }); err != nil {
				return err
			}
		}
		warning, err := linkUser(ctx, w, ceo)
		if warning != "" {
			s.logger.Warn("user not linked", zap.String("reason", warning))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("employee_id", ceo.ID)}
	if current != nil {
		fields = append(fields, zap.String("former_ceo_id", current.ID))
	}
	s.logger.Info("CEO replaced", fields...)
	return ceo, nil
}
