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

// TeamsHandler exposes team endpoints.
type TeamsHandler struct {
	uow     *service.UnitOfWork
	org     *service.OrgService
	cascade *service.CascadeService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(uow *service.UnitOfWork, org *service.OrgService, cascade *service.CascadeService) *TeamsHandler {
	return &TeamsHandler{uow: uow, org: org, cascade: cascade}
}

// List handles GET /teams.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	filter := repository.TeamFilter{
		ParentTeamID: optionalQuery(c, "parent_team_id"),
		DepartmentID: optionalQuery(c, "department_id"),
		LeadID:       optionalQuery(c, "lead_id"),
	}
	var teams []domain.Team
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		teams, err = h.org.ListTeams(c.UserContext(), tx, filter)
		return err
	})
	if err != nil {
		return err
	}
	resp := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		resp = append(resp, dto.NewTeamResponse(&teams[i]))
	}
	return c.JSON(data(resp))
}

// Get handles GET /teams/:id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Team, error) {
		return h.org.GetTeam(c.UserContext(), tx, c.Params("id"))
	})
}

// Create handles POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	var req dto.TeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.TeamInput{Name: req.Name, ParentTeamID: req.ParentTeamID, DepartmentID: req.DepartmentID}
	return h.respond(c, http.StatusCreated, func(tx repository.Tx) (*domain.Team, error) {
		return h.org.CreateTeam(c.UserContext(), tx, auth.ActorID(c), in)
	})
}

// Delete handles DELETE /teams/:id.
func (h *TeamsHandler) Delete(c *fiber.Ctx) error {
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		return h.cascade.DeleteTeam(c.UserContext(), tx, auth.ActorID(c), c.Params("id"))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetParent handles PUT /teams/:id/parent.
func (h *TeamsHandler) SetParent(c *fiber.Ctx) error {
	var req dto.TeamParentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Team, error) {
		return h.org.SetTeamParent(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.ParentTeamID)
	})
}

// SetLead handles PUT /teams/:id/lead.
func (h *TeamsHandler) SetLead(c *fiber.Ctx) error {
	var req dto.TeamLeadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Team, error) {
		return h.org.SetTeamLead(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.LeadID)
	})
}

// SetDepartment handles PUT /teams/:id/department.
func (h *TeamsHandler) SetDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentAssignmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, func(tx repository.Tx) (*domain.Team, error) {
		return h.org.SetTeamDepartment(c.UserContext(), tx, auth.ActorID(c), c.Params("id"), req.DepartmentID)
	})
}

func (h *TeamsHandler) respond(c *fiber.Ctx, status int, fn func(tx repository.Tx) (*domain.Team, error)) error {
	var team *domain.Team
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		team, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(status).JSON(data(dto.NewTeamResponse(team)))
}
