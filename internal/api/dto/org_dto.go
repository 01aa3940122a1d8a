package dto

import (
	"time"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

// EmployeeRequest payload for hiring and for replacing the CEO.
type EmployeeRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Title        string  `json:"title"`
	HiredOn      *string `json:"hired_on"`
	Salary       *int64  `json:"salary"`
	Status       string  `json:"status"`
	ManagerID    *string `json:"manager_id"`
	DepartmentID *string `json:"department_id"`
	TeamID       *string `json:"team_id"`
}

// EmployeeUpdateRequest payload for descriptive field changes.
type EmployeeUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Title   *string `json:"title"`
	HiredOn *string `json:"hired_on"`
	Salary  *int64  `json:"salary"`
	Status  *string `json:"status"`
}

// ManagerRequest payload for PUT /employees/:id/manager.
type ManagerRequest struct {
	ManagerID *string `json:"manager_id"`
}

// TeamAssignmentRequest payload for PUT /employees/:id/team.
type TeamAssignmentRequest struct {
	TeamID *string `json:"team_id"`
}

// DepartmentAssignmentRequest payload for PUT /employees/:id/department and
// PUT /teams/:id/department.
type DepartmentAssignmentRequest struct {
	DepartmentID *string `json:"department_id"`
}

// PromoteRequest payload for POST /ceo/promote.
type PromoteRequest struct {
	EmployeeID string `json:"employee_id"`
}

// EmployeeResponse describes an employee.
type EmployeeResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Title        string                `json:"title"`
	HiredOn      *string               `json:"hired_on"`
	Salary       *int64                `json:"salary"`
	Status       domain.EmployeeStatus `json:"status"`
	ManagerID    *string               `json:"manager_id"`
	DepartmentID *string               `json:"department_id"`
	TeamID       *string               `json:"team_id"`
	IsCEO        bool                  `json:"is_ceo"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewEmployeeResponse maps a domain employee.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Title:        e.Title,
		Salary:       e.Salary,
		Status:       e.Status,
		ManagerID:    e.ManagerID,
		DepartmentID: e.DepartmentID,
		TeamID:       e.TeamID,
		IsCEO:        e.IsCEO(),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.HiredOn != nil {
		hired := e.HiredOn.Format(domain.DateLayout)
		resp.HiredOn = &hired
	}
	return resp
}

// TeamRequest payload for POST /teams.
type TeamRequest struct {
	Name         string  `json:"name"`
	ParentTeamID *string `json:"parent_team_id"`
	DepartmentID *string `json:"department_id"`
}

// TeamParentRequest payload for PUT /teams/:id/parent.
type TeamParentRequest struct {
	ParentTeamID *string `json:"parent_team_id"`
}

// TeamLeadRequest payload for PUT /teams/:id/lead.
type TeamLeadRequest struct {
	LeadID *string `json:"lead_id"`
}

// TeamResponse describes a team.
type TeamResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LeadID       *string   `json:"lead_id"`
	ParentTeamID *string   `json:"parent_team_id"`
	DepartmentID *string   `json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewTeamResponse maps a domain team.
func NewTeamResponse(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:           t.ID,
		Name:         t.Name,
		LeadID:       t.LeadID,
		ParentTeamID: t.ParentTeamID,
		DepartmentID: t.DepartmentID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// DepartmentRequest payload for creating or renaming a department.
type DepartmentRequest struct {
	Name string `json:"name"`
}

// DepartmentResponse describes a department.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// AuditLogResponse describes one audit entry.
type AuditLogResponse struct {
	ID              string            `json:"id"`
	EntityType      domain.EntityType `json:"entity_type"`
	EntityID        string            `json:"entity_id"`
	ChangeType      domain.ChangeType `json:"change_type"`
	PreviousState   map[string]any    `json:"previous_state"`
	NewState        map[string]any    `json:"new_state"`
	ChangedByUserID *string           `json:"changed_by_user_id"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewAuditLogResponse maps a domain audit entry.
func NewAuditLogResponse(entry *domain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:              entry.ID,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		ChangeType:      entry.ChangeType,
		PreviousState:   entry.PreviousState,
		NewState:        entry.NewState,
		ChangedByUserID: entry.ChangedByUserID,
		CreatedAt:       entry.CreatedAt,
	}
}

// AuditLogPageResponse is one page of audit entries.
type AuditLogPageResponse struct {
	Items  []AuditLogResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// EmployeePageResponse is one page of employees.
type EmployeePageResponse struct {
	Items  []EmployeeResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// SearchResponse groups global search matches.
type SearchResponse struct {
	Employees   []EmployeeResponse   `json:"employees"`
	Departments []DepartmentResponse `json:"departments"`
	Teams       []TeamResponse       `json:"teams"`
}

// ImportRowRequest is one JSON import row. Values are raw strings, as they
// would appear in a CSV cell.
type ImportRowRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Title          string `json:"title"`
	HiredOn        string `json:"hired_on"`
	Salary         string `json:"salary"`
	Status         string `json:"status"`
	ManagerEmail   string `json:"manager_email"`
	DepartmentName string `json:"department_name"`
	TeamName       string `json:"team_name"`
}

// ImportRequest payload for JSON bulk imports.
type ImportRequest struct {
	Rows   []ImportRowRequest `json:"rows"`
	DryRun bool               `json:"dry_run"`
}

// ToImportRows numbers the rows from 1 in request order.
func (r ImportRequest) ToImportRows() []domain.ImportRow {
	rows := make([]domain.ImportRow, 0, len(r.Rows))
	for i, row := range r.Rows {
		rows = append(rows, domain.ImportRow{
			RowNumber:      i + 1,
			Name:           row.Name,
			Email:          row.Email,
			Title:          row.Title,
			HiredOn:        row.HiredOn,
			Salary:         row.Salary,
			Status:         row.Status,
			ManagerEmail:   row.ManagerEmail,
			DepartmentName: row.DepartmentName,
			TeamName:       row.TeamName,
		})
	}
	return rows
}
