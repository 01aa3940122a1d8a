package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and reports failures keyed by field name.
func validateStruct(message string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(message, map[string]any{"error": err.Error()})
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describeFieldError(fe)
	}
	return apperrors.NewValidationError(message, details)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// EmployeeInput describes a new employee record.
type EmployeeInput struct {
	Name         string                `json:"name" validate:"required"`
	Email        string                `json:"email" validate:"required,email"`
	Title        string                `json:"title"`
	HiredOn      *time.Time            `json:"hired_on"`
	Salary       *int64                `json:"salary" validate:"omitempty,min=0"`
	Status       domain.EmployeeStatus `json:"status" validate:"omitempty,oneof=ACTIVE ON_LEAVE"`
	ManagerID    *string               `json:"manager_id"`
	DepartmentID *string               `json:"department_id"`
	TeamID       *string               `json:"team_id"`
}

func (in *EmployeeInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = domain.EmployeeStatusActive
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// resolvePlacement checks the department and team references and returns the
// department the employee should carry. A team that belongs to a department
// decides the employee's department.
func resolvePlacement(ctx context.Context, tx repository.Tx, departmentID, teamID *string) (*string, error) {
	if teamID != nil {
		team, err := tx.Teams().GetByID(ctx, *teamID)
		if err != nil {
			return nil, storeError(err, "team", map[string]any{"team_id": *teamID})
		}
		if team.DepartmentID != nil {
			if departmentID != nil && *departmentID != *team.DepartmentID {
				return nil, apperrors.NewInvariantViolation("employee department must match the team's department", map[string]any{
					"team_id":            team.ID,
					"team_department_id": *team.DepartmentID,
					"department_id":      *departmentID,
				})
			}
			departmentID = team.DepartmentID
		}
	}
	if departmentID != nil {
		if _, err := tx.Departments().GetByID(ctx, *departmentID); err != nil {
			return nil, storeError(err, "department", map[string]any{"department_id": *departmentID})
		}
	}
	return departmentID, nil
}

// linkUser attaches the user account sharing the employee's email. An account
// already linked to another employee is left alone and reported as a warning.
func linkUser(ctx context.Context, w *Writer, e *domain.Employee) (string, error) {
	user, err := w.Tx().Users().GetByEmail(ctx, e.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if user.EmployeeID != nil && *user.EmployeeID != e.ID {
		return fmt.Sprintf("user %s is already linked to employee %s", user.Email, *user.EmployeeID), nil
	}
	if _, err := w.UpdateUser(ctx, user, func(u *domain.User) { u.EmployeeID = domain.StringPtr(e.ID) }); err != nil {
		return "", err
	}
	return "", nil
}

func getEmployee(ctx context.Context, tx repository.Tx, id string) (*domain.Employee, error) {
	e, err := tx.Employees().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "employee", map[string]any{"employee_id": id})
	}
	return e, nil
}

func getTeam(ctx context.Context, tx repository.Tx, id string) (*domain.Team, error) {
	t, err := tx.Teams().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "team", map[string]any{"team_id": id})
	}
	return t, nil
}

func getDepartment(ctx context.Context, tx repository.Tx, id string) (*domain.Department, error) {
	d, err := tx.Departments().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "department", map[string]any{"department_id": id})
	}
	return d, nil
}

// currentCEO returns the root employee or nil when the org is empty.
func currentCEO(ctx context.Context, tx repository.Tx) (*domain.Employee, error) {
	ceo, err := tx.Employees().GetRoot(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ceo, nil
}

func ensureEmailAvailable(ctx context.Context, tx repository.Tx, email string) error {
	_, err := tx.Employees().GetByEmail(ctx, email)
	if err == nil {
		return apperrors.NewDuplicate("employee email already exists", map[string]any{"email": email})
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return apperrors.MapError(err)
}
