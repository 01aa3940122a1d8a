package domain

import "time"

// User is a login account. EmployeeID links it to at most one employee record.
type User struct {
	ID         string
	Name       string
	Email      string
	EmployeeID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.EmployeeID = cloneString(u.EmployeeID)
	return &cp
}
