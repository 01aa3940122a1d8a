package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// EmployeeFilter narrows employee listings. Nil and empty fields are ignored.
type EmployeeFilter struct {
	ManagerID    *string
	DepartmentID *string
	TeamID       *string
	Status       *domain.EmployeeStatus
	MinSalary    *int64
	MaxSalary    *int64
	// Search matches a substring of the name or the email, ignoring case.
	Search string
}

// Page bounds a listing. A zero Limit returns every match.
type Page struct {
	Limit  int
	Offset int
}

// TeamFilter narrows team listings. Nil fields are ignored.
type TeamFilter struct {
	ParentTeamID *string
	DepartmentID *string
	LeadID       *string
}

// AuditLogFilter narrows audit log listings. DateFrom is inclusive, DateTo exclusive.
type AuditLogFilter struct {
	EntityType      *domain.EntityType
	EntityID        *string
	ChangeType      *domain.ChangeType
	ChangedByUserID *string
	DateFrom        *time.Time
	DateTo          *time.Time
	Limit           int
	Offset          int
	Ascending       bool
}

// EmployeeRepository manages persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	// GetRoot returns the employee without a manager, or ErrNotFound.
	GetRoot(ctx context.Context) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	// ListPage returns one page of matches ordered by name, and the total
	// number of matches.
	ListPage(ctx context.Context, filter EmployeeFilter, page Page) ([]domain.Employee, int, error)
	Count(ctx context.Context) (int, error)
}

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByName(ctx context.Context, name string) (*domain.Team, error)
	List(ctx context.Context, filter TeamFilter) ([]domain.Team, error)
	// SearchByName returns up to limit teams whose name contains term, ignoring case.
	SearchByName(ctx context.Context, term string, limit int) ([]domain.Team, error)
}

// DepartmentRepository manages persistence for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	// SearchByName returns up to limit departments whose name contains term, ignoring case.
	SearchByName(ctx context.Context, term string, limit int) ([]domain.Department, error)
}

// UserRepository manages persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail matches the address ignoring case.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
}

// AuditLogRepository stores audit entries. Entries are write-once.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	GetByID(ctx context.Context, id string) (*domain.AuditLog, error)
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, int, error)
}

// Tx is a unit of work. Every repository it hands out reads and writes inside
// the same transaction.
type Tx interface {
	Employees() EmployeeRepository
	Teams() TeamRepository
	Departments() DepartmentRepository
	Users() UserRepository
	AuditLogs() AuditLogRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens units of work. Implementations serialize writers so that a read
// followed by a write inside one Tx cannot interleave with another Tx.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// RunInTx opens a unit of work, runs fn and commits when fn succeeds.
// Any error rolls the unit of work back.
func RunInTx(ctx context.Context, store Store, fn func(tx Tx) error) (err error) {
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
