package domain

// ImportColumns lists the recognised import columns in canonical order.
var ImportColumns = []string{
	"name", "email", "title", "hired_on", "salary", "status",
	"manager_email", "department_name", "team_name",
}

// ImportRow is one raw employee row from a bulk import. Values are unparsed
// strings; Raw keeps the row as received for error reporting.
type ImportRow struct {
	RowNumber      int               `json:"row_number"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Title          string            `json:"title"`
	HiredOn        string            `json:"hired_on"`
	Salary         string            `json:"salary"`
	Status         string            `json:"status"`
	ManagerEmail   string            `json:"manager_email"`
	DepartmentName string            `json:"department_name"`
	TeamName       string            `json:"team_name"`
	Raw            map[string]string `json:"-"`
}

// ImportRowFromMap builds a row from column values keyed by column name.
func ImportRowFromMap(rowNumber int, values map[string]string) ImportRow {
	return ImportRow{
		RowNumber:      rowNumber,
		Name:           values["name"],
		Email:          values["email"],
		Title:          values["title"],
		HiredOn:        values["hired_on"],
		Salary:         values["salary"],
		Status:         values["status"],
		ManagerEmail:   values["manager_email"],
		DepartmentName: values["department_name"],
		TeamName:       values["team_name"],
		Raw:            values,
	}
}

// Data returns the raw row, rebuilding it from the parsed fields when the
// row did not come from a file.
func (r ImportRow) Data() map[string]string {
	if r.Raw != nil {
		return r.Raw
	}
	return map[string]string{
		"name":            r.Name,
		"email":           r.Email,
		"title":           r.Title,
		"hired_on":        r.HiredOn,
		"salary":          r.Salary,
		"status":          r.Status,
		"manager_email":   r.ManagerEmail,
		"department_name": r.DepartmentName,
		"team_name":       r.TeamName,
	}
}
