package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
)

// EmployeesHandler exposes employee endpoints.
type EmployeesHandler struct {
	uow     *service.UnitOfWork
	org     *service.OrgService
	cascade *service.CascadeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(uow *service.UnitOfWork, org *service.OrgService, cascade *service.CascadeService) *EmployeesHandler {
	return &EmployeesHandler{uow: uow, org: org, cascade: cascade}
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	q, err := parseEmployeeQuery(c)
	if err != nil {
		return err
	}
	var page *service.EmployeePage
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		page, err = h.org.ListEmployees(c.UserContext(), tx, q)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.EmployeePageResponse{
		Items:  employeeList(page.Items),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	var employee *domain.Employee
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		employee, err = h.org.GetEmployee(c.UserContext(), tx, c.Params("id"))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEmployeeResponse(employee)))
}

// Reports handles GET /employees/:id/reports.
func (h *EmployeesHandler) Reports(c *fiber.Ctx) error {
	id := c.Params("id")
	var reports []domain.Employee
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		reports, err = h.org.ListReports(c.UserContext(), tx, id)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(employeeList(reports)))
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := employeeInput(req)
	if err != nil {
		return err
	}
	var employee *domain.Employee
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		employee, err = h.org.CreateEmployee(c.UserContext(), tx, auth.ActorID(c), in)
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(dto.NewEmployeeResponse(employee)))
}

// Update handles PATCH /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	var req dto.EmployeeUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	hiredOn, err := parseDate("hired_on", req.HiredOn)
	if err != nil {
		return err
	}
	update := service.EmployeeUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Title:   req.Title,
		HiredOn: hiredOn,
		Salary:  req.Salary,
	}
	if req.Status != nil {
		status := domain.EmployeeStatus(*req.Status)
		update.Status = &status
	}

	var employee *domain.Employee
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		employee, err = h.org.UpdateEmployee(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), update)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEmployeeResponse(employee)))
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		return h.cascade.DeleteEmployee(c.UserContext(), tx, auth.ActorID(c), c.Params("id"))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetManager handles PUT /employees/:id/manager.
func (h *EmployeesHandler) SetManager(c *fiber.Ctx) error {
	var req dto.ManagerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.mutate(c, func(tx repository.Tx) (*domain.Employee, error) {
		return h.org.SetManager(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.ManagerID)
	})
}

// AssignTeam handles PUT /employees/:id/team.
func (h *EmployeesHandler) AssignTeam(c *fiber.Ctx) error {
	var req dto.TeamAssignmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.mutate(c, func(tx repository.Tx) (*domain.Employee, error) {
		return h.org.AssignTeam(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.TeamID)
	})
}

// AssignDepartment handles PUT /employees/:id/department.
func (h *EmployeesHandler) AssignDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentAssignmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.mutate(c, func(tx repository.Tx) (*domain.Employee, error) {
		return h.org.AssignDepartment(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.DepartmentID)
	})
}

func (h *EmployeesHandler) mutate(c *fiber.Ctx, fn func(tx repository.Tx) (*domain.Employee, error)) error {
	var employee *domain.Employee
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		employee, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEmployeeResponse(employee)))
}

func employeeInput(req dto.EmployeeRequest) (service.EmployeeInput, error) {
	hiredOn, err := parseDate("hired_on", req.HiredOn)
	if err != nil {
		return service.EmployeeInput{}, err
	}
	return service.EmployeeInput{
		Name:         req.Name,
		Email:        req.Email,
		Title:        req.Title,
		HiredOn:      hiredOn,
		Salary:       req.Salary,
		Status:       domain.EmployeeStatus(req.Status),
		ManagerID:    req.ManagerID,
		DepartmentID: req.DepartmentID,
		TeamID:       req.TeamID,
	}, nil
}

func parseEmployeeQuery(c *fiber.Ctx) (service.EmployeeQuery, error) {
	q := service.EmployeeQuery{
		ManagerID:    c.Query("manager_id"),
		DepartmentID: c.Query("department_id"),
		TeamID:       c.Query("team_id"),
		Status:       c.Query("status"),
		Search:       c.Query("search"),
	}
	var err error
	if q.MinSalary, err = parseInt64Query(c, "min_salary"); err != nil {
		return q, err
	}
	if q.MaxSalary, err = parseInt64Query(c, "max_salary"); err != nil {
		return q, err
	}
	if q.Limit, err = parseIntQuery(c, "limit", 0); err != nil {
		return q, err
	}
	if q.Offset, err = parseIntQuery(c, "offset", 0); err != nil {
		return q, err
	}
	return q, nil
}

func employeeList(employees []domain.Employee) []dto.EmployeeResponse {
	resp := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		resp = append(resp, dto.NewEmployeeResponse(&employees[i]))
	}
	return resp
}
