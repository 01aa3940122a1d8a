package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// OrgService handles everyday hierarchy edits: hiring, re-parenting and moving
// people between teams and departments.
type OrgService struct {
	logger   *zap.Logger
	recorder *AuditRecorder
	cycles   *CycleDetector
}

// NewOrgService constructs the service.
func NewOrgService(deps Dependencies) *OrgService {
	deps = deps.withDefaults()
	return &OrgService{logger: deps.Logger, recorder: deps.Recorder, cycles: deps.Cycles}
}

// EmployeeUpdate carries optional field changes. Email is accepted only when
// it equals the stored value.
type EmployeeUpdate struct {
	Name    *string                `json:"name"`
	Email   *string                `json:"email"`
	Title   *string                `json:"title"`
	HiredOn *time.Time             `json:"hired_on"`
	Salary  *int64                 `json:"salary" validate:"omitempty,min=0"`
	Status  *domain.EmployeeStatus `json:"status" validate:"omitempty,oneof=ACTIVE ON_LEAVE"`
}

// TeamInput describes a new team.
type TeamInput struct {
	Name         string  `json:"name" validate:"required"`
	ParentTeamID *string `json:"parent_team_id"`
	DepartmentID *string `json:"department_id"`
}

// CreateEmployee hires an employee. The first employee of an empty org may
// omit the manager and becomes CEO; everyone after that needs a manager.
func (s *OrgService) CreateEmployee(ctx context.Context, tx repository.Tx, actorID *string, in EmployeeInput) (employee *domain.Employee, err error) {
	defer func() { recordMutation("create_employee", err) }()

	in.normalize()
	if err := validateStruct("invalid employee payload", in); err != nil {
		return nil, err
	}
	if err := ensureEmailAvailable(ctx, tx, in.Email); err != nil {
		return nil, err
	}
	if in.ManagerID == nil {
		count, err := tx.Employees().Count(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if count > 0 {
			return nil, apperrors.NewInvariantViolation("manager_id is required once the organization has a CEO", nil)
		}
	} else if _, err := getEmployee(ctx, tx, *in.ManagerID); err != nil {
		return nil, err
	}
	departmentID, err := resolvePlacement(ctx, tx, in.DepartmentID, in.TeamID)
	if err != nil {
		return nil, err
	}

	e := &domain.Employee{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Title:        in.Title,
		HiredOn:      in.HiredOn,
		Salary:       in.Salary,
		Status:       in.Status,
		ManagerID:    in.ManagerID,
		DepartmentID: departmentID,
		TeamID:       in.TeamID,
	}
	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		if err := w.CreateEmployee(ctx, e); err != nil {
			return err
		}
		warning, err := linkUser(ctx, w, e)
		if warning != "" {
			s.logger.Warn("user not linked", zap.String("reason", warning))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("employee created", zap.String("employee_id", e.ID))
	return e, nil
}

// UpdateEmployee changes descriptive fields. Placement fields have dedicated
// operations.
func (s *OrgService) UpdateEmployee(ctx context.Context, tx repository.Tx, actorID *string, employeeID string, in EmployeeUpdate) (employee *domain.Employee, err error) {
	defer func() { recordMutation("update_employee", err) }()

	if err := validateStruct("invalid employee payload", in); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("invalid employee payload", map[string]any{"name": "is required"})
	}
	e, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && normalizeEmail(*in.Email) != e.Email {
		return nil, apperrors.NewValidationError("email cannot be changed", map[string]any{"email": "is immutable"})
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateEmployee(ctx, e, func(e *domain.Employee) {
			if in.Name != nil {
				e.Name = strings.TrimSpace(*in.Name)
			}
			if in.Title != nil {
				e.Title = strings.TrimSpace(*in.Title)
			}
			if in.HiredOn != nil {
				hired := *in.HiredOn
				e.HiredOn = &hired
			}
			if in.Salary != nil {
				salary := *in.Salary
				e.Salary = &salary
			}
			if in.Status != nil {
				e.Status = *in.Status
			}
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SetManager moves an employee under a new manager. Removing a manager is not
// possible here; use PromoteToCEO instead.
func (s *OrgService) SetManager(ctx context.Context, tx repository.Tx, actorID *string, employeeID string, managerID *string) (employee *domain.Employee, err error) {
	defer func() { recordMutation("set_manager", err) }()

	if managerID == nil || *managerID == "" {
		return nil, apperrors.NewValidationError("manager_id is required; promote the employee to make them CEO", map[string]any{
			"manager_id": "is required",
		})
	}
	e, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return nil, err
	}
	if _, err := getEmployee(ctx, tx, *managerID); err != nil {
		return nil, err
	}
	if e.IsCEO() {
		return nil, apperrors.NewInvariantViolation("the CEO cannot report to another employee; promote a new CEO instead", map[string]any{
			"employee_id": e.ID,
		})
	}
	if err := s.cycles.Check(ctx, tx, GraphEmployeeManager, e.ID, managerID); err != nil {
		return nil, err
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateEmployee(ctx, e, func(e *domain.Employee) { e.ManagerID = domain.StringPtr(*managerID) })
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AssignTeam moves an employee to a team or out of any team. A lead role on the
// team they leave is cleared, and a team that belongs to a department moves
// the employee into that department.
func (s *OrgService) AssignTeam(ctx context.Context, tx repository.Tx, actorID *string, employeeID string, teamID *string) (employee *domain.Employee, err error) {
	defer func() { recordMutation("assign_team", err) }()

	e, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return nil, err
	}
	var team *domain.Team
	if teamID != nil {
		if team, err = getTeam(ctx, tx, *teamID); err != nil {
			return nil, err
		}
	}
	var formerTeam *domain.Team
	if e.TeamID != nil && !domain.SameRef(e.TeamID, teamID) {
		if formerTeam, err = getTeam(ctx, tx, *e.TeamID); err != nil {
			return nil, err
		}
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		if formerTeam != nil && domain.SameRef(formerTeam.LeadID, &e.ID) {
			if _, err := w.UpdateTeam(ctx, formerTeam, func(t *domain.Team) { t.LeadID = nil }); err != nil {
				return err
			}
		}
		_, err := w.UpdateEmployee(ctx, e, func(e *domain.Employee) {
			if team == nil {
				e.TeamID = nil
				return
			}
			e.TeamID = domain.StringPtr(team.ID)
			if team.DepartmentID != nil {
				e.DepartmentID = domain.StringPtr(*team.DepartmentID)
			}
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AssignDepartment moves an employee to a department or clears it. The
// department must agree with the department of the employee's team.
func (s *OrgService) AssignDepartment(ctx context.Context, tx repository.Tx, actorID *string, employeeID string, departmentID *string) (employee *domain.Employee, err error) {
	defer func() { recordMutation("assign_department", err) }()

	e, err := getEmployee(ctx, tx, employeeID)
	if err != nil {
		return nil, err
	}
	if departmentID != nil {
		if _, err := getDepartment(ctx, tx, *departmentID); err != nil {
			return nil, err
		}
	}
	if e.TeamID != nil {
		team, err := getTeam(ctx, tx, *e.TeamID)
		if err != nil {
			return nil, err
		}
		if team.DepartmentID != nil && !domain.SameRef(team.DepartmentID, departmentID) {
			return nil, apperrors.NewInvariantViolation("employee department must match the team's department", map[string]any{
				"team_id":            team.ID,
				"team_department_id": *team.DepartmentID,
			})
		}
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateEmployee(ctx, e, func(e *domain.Employee) { e.DepartmentID = cloneRef(departmentID) })
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateDepartment adds a department with a unique name.
func (s *OrgService) CreateDepartment(ctx context.Context, tx repository.Tx, actorID *string, name string) (dept *domain.Department, err error) {
	defer func() { recordMutation("create_department", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("invalid department payload", map[string]any{"name": "is required"})
	}
	d := &domain.Department{ID: uuid.NewString(), Name: name}
	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		return w.CreateDepartment(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// RenameDepartment changes a department name.
func (s *OrgService) RenameDepartment(ctx context.Context, tx repository.Tx, actorID *string, departmentID, name string) (dept *domain.Department, err error) {
	defer func() { recordMutation("rename_department", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("invalid department payload", map[string]any{"name": "is required"})
	}
	d, err := getDepartment(ctx, tx, departmentID)
	if err != nil {
		return nil, err
	}
	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateDepartment(ctx, d, func(d *domain.Department) { d.Name = name })
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateTeam adds a team. A team under a parent with a department inherits
// that department unless a matching one is given.
func (s *OrgService) CreateTeam(ctx context.Context, tx repository.Tx, actorID *string, in TeamInput) (team *domain.Team, err error) {
	defer func() { recordMutation("create_team", err) }()

	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct("invalid team payload", in); err != nil {
		return nil, err
	}
	departmentID := in.DepartmentID
	if departmentID != nil {
		if _, err := getDepartment(ctx, tx, *departmentID); err != nil {
			return nil, err
		}
	}
	if in.ParentTeamID != nil {
		parent, err := getTeam(ctx, tx, *in.ParentTeamID)
		if err != nil {
			return nil, err
		}
		if parent.DepartmentID != nil {
			if departmentID != nil && *departmentID != *parent.DepartmentID {
				return nil, departmentMismatch(parent)
			}
			departmentID = parent.DepartmentID
		}
	}

	t := &domain.Team{
		ID:           uuid.NewString(),
		Name:         in.Name,
		ParentTeamID: in.ParentTeamID,
		DepartmentID: departmentID,
	}
	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		return w.CreateTeam(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetTeamParent re-parents a team or makes it root-level when parentID is nil.
func (s *OrgService) SetTeamParent(ctx context.Context, tx repository.Tx, actorID *string, teamID string, parentID *string) (team *domain.Team, err error) {
	defer func() { recordMutation("set_team_parent", err) }()

	t, err := getTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := getTeam(ctx, tx, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.cycles.Check(ctx, tx, GraphTeamParent, t.ID, parentID); err != nil {
			return nil, err
		}
		if t.DepartmentID != nil && parent.DepartmentID != nil && *t.DepartmentID != *parent.DepartmentID {
			return nil, departmentMismatch(parent)
		}
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateTeam(ctx, t, func(t *domain.Team) { t.ParentTeamID = cloneRef(parentID) })
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetTeamLead assigns a current member as lead, or clears the lead.
func (s *OrgService) SetTeamLead(ctx context.Context, tx repository.Tx, actorID *string, teamID string, employeeID *string) (team *domain.Team, err error) {
	defer func() { recordMutation("set_team_lead", err) }()

	t, err := getTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	if employeeID != nil {
		e, err := getEmployee(ctx, tx, *employeeID)
		if err != nil {
			return nil, err
		}
		if !domain.SameRef(e.TeamID, &t.ID) {
			return nil, apperrors.NewInvariantViolation("team lead must be a member of the team", map[string]any{
				"team_id":     t.ID,
				"employee_id": e.ID,
			})
		}
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		_, err := w.UpdateTeam(ctx, t, func(t *domain.Team) { t.LeadID = cloneRef(employeeID) })
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetTeamDepartment moves a team and all of its descendant teams into a
// department, or clears it. Members follow their team when a department is set.
func (s *OrgService) SetTeamDepartment(ctx context.Context, tx repository.Tx, actorID *string, teamID string, departmentID *string) (team *domain.Team, err error) {
	defer func() { recordMutation("set_team_department", err) }()

	t, err := getTeam(ctx, tx, teamID)
	if err != nil {
		return nil, err
	}
	if departmentID != nil {
		if _, err := getDepartment(ctx, tx, *departmentID); err != nil {
			return nil, err
		}
	}
	if t.ParentTeamID != nil {
		parent, err := getTeam(ctx, tx, *t.ParentTeamID)
		if err != nil {
			return nil, err
		}
		if parent.DepartmentID != nil && !domain.SameRef(parent.DepartmentID, departmentID) {
			return nil, departmentMismatch(parent)
		}
	}

	subtree, err := s.teamSubtree(ctx, tx, t)
	if err != nil {
		return nil, err
	}

	_, err = s.recorder.Mutate(ctx, tx, actorID, func(w *Writer) error {
		for _, member := range subtree {
			if _, err := w.UpdateTeam(ctx, member, func(t *domain.Team) { t.DepartmentID = cloneRef(departmentID) }); err != nil {
				return err
			}
			if departmentID == nil {
				continue
			}
			employees, err := tx.Employees().List(ctx, repository.EmployeeFilter{TeamID: &member.ID})
			if err != nil {
				return err
			}
			for i := range employees {
				if _, err := w.UpdateEmployee(ctx, &employees[i], func(e *domain.Employee) { e.DepartmentID = cloneRef(departmentID) }); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// teamSubtree returns root followed by its descendants in breadth-first order.
func (s *OrgService) teamSubtree(ctx context.Context, tx repository.Tx, root *domain.Team) ([]*domain.Team, error) {
	result := []*domain.Team{root}
	seen := map[string]struct{}{root.ID: {}}
	for i := 0; i < len(result); i++ {
		children, err := tx.Teams().List(ctx, repository.TeamFilter{ParentTeamID: &result[i].ID})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for j := range children {
			if _, ok := seen[children[j].ID]; ok {
				continue
			}
			seen[children[j].ID] = struct{}{}
			result = append(result, &children[j])
		}
	}
	return result, nil
}

// GetEmployee fetches one employee.
func (s *OrgService) GetEmployee(ctx context.Context, tx repository.Tx, id string) (*domain.Employee, error) {
	return getEmployee(ctx, tx, id)
}

// ListReports returns every direct report of managerID.
func (s *OrgService) ListReports(ctx context.Context, tx repository.Tx, managerID string) ([]domain.Employee, error) {
	if _, err := getEmployee(ctx, tx, managerID); err != nil {
		return nil, err
	}
	reports, err := tx.Employees().List(ctx, repository.EmployeeFilter{ManagerID: &managerID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// GetCEO returns the root employee.
func (s *OrgService) GetCEO(ctx context.Context, tx repository.Tx) (*domain.Employee, error) {
	ceo, err := currentCEO(ctx, tx)
	if err != nil {
		return nil, err
	}
	if ceo == nil {
		return nil, apperrors.NewNotFound("CEO", nil)
	}
	return ceo, nil
}

// GetTeam fetches one team.
func (s *OrgService) GetTeam(ctx context.Context, tx repository.Tx, id string) (*domain.Team, error) {
	return getTeam(ctx, tx, id)
}

// ListTeams returns teams matching filter.
func (s *OrgService) ListTeams(ctx context.Context, tx repository.Tx, filter repository.TeamFilter) ([]domain.Team, error) {
	teams, err := tx.Teams().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// GetDepartment fetches one department.
func (s *OrgService) GetDepartment(ctx context.Context, tx repository.Tx, id string) (*domain.Department, error) {
	return getDepartment(ctx, tx, id)
}

// ListDepartments returns all departments ordered by name.
func (s *OrgService) ListDepartments(ctx context.Context, tx repository.Tx) ([]domain.Department, error) {
	depts, err := tx.Departments().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

func departmentMismatch(parent *domain.Team) error {
	return apperrors.NewInvariantViolation("team department must match the parent team's department", map[string]any{
		"parent_team_id":       parent.ID,
		"parent_department_id": *parent.DepartmentID,
	})
}

func cloneRef(v *string) *string {
	if v == nil {
		return nil
	}
	return domain.StringPtr(*v)
}
