package domain

import "time"

// Department represents a high-level organizational unit.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy of the department.
func (d *Department) Clone() *Department {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}
