package domain

import "time"

// EmployeeStatus captures whether an employee is currently working.
type EmployeeStatus string

const (
	EmployeeStatusActive  EmployeeStatus = "ACTIVE"
	EmployeeStatusOnLeave EmployeeStatus = "ON_LEAVE"
)

// Valid reports whether s is a known status.
func (s EmployeeStatus) Valid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusOnLeave
}

// DateLayout is the calendar date format used for hire dates.
const DateLayout = "2006-01-02"

// Employee is a node in the reporting tree. ManagerID is nil only for the CEO.
type Employee struct {
	ID           string
	Name         string
	Email        string
	Title        string
	HiredOn      *time.Time
	Salary       *int64
	Status       EmployeeStatus
	ManagerID    *string
	DepartmentID *string
	TeamID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsCEO reports whether the employee is the root of the reporting tree.
func (e *Employee) IsCEO() bool {
	return e.ManagerID == nil
}

// Clone returns a deep copy so callers never share pointer fields.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	cp := *e
	cp.ManagerID = cloneString(e.ManagerID)
	cp.DepartmentID = cloneString(e.DepartmentID)
	cp.TeamID = cloneString(e.TeamID)
	if e.HiredOn != nil {
		t := *e.HiredOn
		cp.HiredOn = &t
	}
	if e.Salary != nil {
		s := *e.Salary
		cp.Salary = &s
	}
	return &cp
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// SameRef compares two optional references by value.
func SameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to a copy of v.
func StringPtr(v string) *string {
	return &v
}
