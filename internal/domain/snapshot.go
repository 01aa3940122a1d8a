package domain

// Snapshots are flat maps of plain values. Pointer fields are dereferenced so a
// snapshot never aliases the record it was taken from.

// Snapshot captures the auditable fields of an employee.
func (e *Employee) Snapshot() map[string]any {
	var hiredOn any
	if e.HiredOn != nil {
		hiredOn = e.HiredOn.Format(DateLayout)
	}
	var salary any
	if e.Salary != nil {
		salary = *e.Salary
	}
	return map[string]any{
		"name":          e.Name,
		"email":         e.Email,
		"title":         e.Title,
		"hired_on":      hiredOn,
		"salary":        salary,
		"status":        string(e.Status),
		"manager_id":    refValue(e.ManagerID),
		"department_id": refValue(e.DepartmentID),
		"team_id":       refValue(e.TeamID),
	}
}

// Snapshot captures the auditable fields of a team.
func (t *Team) Snapshot() map[string]any {
	return map[string]any{
		"name":           t.Name,
		"lead_id":        refValue(t.LeadID),
		"parent_team_id": refValue(t.ParentTeamID),
		"department_id":  refValue(t.DepartmentID),
	}
}

// Snapshot captures the auditable fields of a department.
func (d *Department) Snapshot() map[string]any {
	return map[string]any{"name": d.Name}
}

// Snapshot captures the auditable fields of a user.
func (u *User) Snapshot() map[string]any {
	return map[string]any{
		"name":        u.Name,
		"email":       u.Email,
		"employee_id": refValue(u.EmployeeID),
	}
}

func refValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
