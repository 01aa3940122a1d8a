package domain

import "time"

// Team groups employees. Teams nest through ParentTeamID and may belong to a department.
type Team struct {
	ID           string
	Name         string
	LeadID       *string
	ParentTeamID *string
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the team.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	cp := *t
	cp.LeadID = cloneString(t.LeadID)
	cp.ParentTeamID = cloneString(t.ParentTeamID)
	cp.DepartmentID = cloneString(t.DepartmentID)
	return &cp
}
