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

// DepartmentsHandler exposes department endpoints.
type DepartmentsHandler struct {
	uow     *service.UnitOfWork
	org     *service.OrgService
	cascade *service.CascadeService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(uow *service.UnitOfWork, org *service.OrgService, cascade *service.CascadeService) *DepartmentsHandler {
	return &DepartmentsHandler{uow: uow, org: org, cascade: cascade}
}

// List handles GET /departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	var depts []domain.Department
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		depts, err = h.org.ListDepartments(c.UserContext(), tx)
		return err
	})
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(data(resp))
}

// Get handles GET /departments/:id.
func (h *DepartmentsHandler) Get(c *fiber.Ctx) error {
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Department, error) {
		return h.org.GetDepartment(c.UserContext(), tx, c.Params("id"))
	})
}

// Create handles POST /departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, func(tx repository.Tx) (*domain.Department, error) {
		return h.org.CreateDepartment(c.UserContext(), tx, auth.ActorID(c), req.Name)
	})
}

// Rename handles PATCH /departments/:id.
func (h *DepartmentsHandler) Rename(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Department, error) {
		return h.org.RenameDepartment(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.Name)
	})
}

// Delete handles DELETE /departments/:id.
func (h *DepartmentsHandler) Delete(c *fiber.Ctx) error {
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		return h.cascade.DeleteDepartment(c.UserContext(), tx, auth.ActorID(c), c.Params("id"))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *DepartmentsHandler) respond(c *fiber.Ctx, status int, fn func(tx repository.Tx) (*domain.Department, error)) error {
	var dept *domain.Department
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		dept, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(status).JSON(data(dto.NewDepartmentResponse(dept)))
}
