package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
	apperrors "github.com/spec-kit/org-hierarchy/pkg/util/errorutil"
)

// CEOHandler exposes the root of the reporting tree.
type CEOHandler struct {
	uow *service.UnitOfWork
	org *service.OrgService
	ceo *service.CEOService
}

// NewCEOHandler constructs handler.
func NewCEOHandler(uow *service.UnitOfWork, org *service.OrgService, ceo *service.CEOService) *CEOHandler {
	return &CEOHandler{uow: uow, org: org, ceo: ceo}
}

// Get handles GET /ceo.
func (h *CEOHandler) Get(c *fiber.Ctx) error {
	var ceo *domain.Employee
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		ceo, err = h.org.GetCEO(c.UserContext(), tx)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEmployeeResponse(ceo)))
}

// Promote handles POST /ceo/promote.
func (h *CEOHandler) Promote(c *fiber.Ctx) error {
	var req dto.PromoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		return apperrors.NewValidationError("employee_id required", map[string]any{"employee_id": "is required"})
	}
	var ceo *domain.Employee
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		ceo, err = h.ceo.PromoteToCEO(c.UserContext(), tx, auth.ActorID(c), req.EmployeeID)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewEmployeeResponse(ceo)))
}

// Replace handles POST /ceo/replace.
func (h *CEOHandler) Replace(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := employeeInput(req)
	if err != nil {
		return err
	}
	var ceo *domain.Employee
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		ceo, err = h.ceo.ReplaceCEO(c.UserContext(), tx, auth.ActorID(c), in)
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(dto.NewEmployeeResponse(ceo)))
}
