package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
)

// SearchHandler exposes global search.
type SearchHandler struct {
	uow *service.UnitOfWork
	org *service.OrgService
}

// NewSearchHandler constructs handler.
func NewSearchHandler(uow *service.UnitOfWork, org *service.OrgService) *SearchHandler {
	return &SearchHandler{uow: uow, org: org}
}

// Search handles GET /search?q=.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var result *service.SearchResult
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		result, err = h.org.Search(c.UserContext(), tx, c.Query("q"))
		return err
	})
	if err != nil {
		return err
	}

	resp := dto.SearchResponse{
		Employees:   employeeList(result.Employees),
		Departments: make([]dto.DepartmentResponse, 0, len(result.Departments)),
		Teams:       make([]dto.TeamResponse, 0, len(result.Teams)),
	}
	for i := range result.Departments {
		resp.Departments = append(resp.Departments, dto.NewDepartmentResponse(&result.Departments[i]))
	}
	for i := range result.Teams {
		resp.Teams = append(resp.Teams, dto.NewTeamResponse(&result.Teams[i]))
	}
	return c.JSON(data(resp))
}
