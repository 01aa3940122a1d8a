package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/org-hierarchy/internal/api/dto"
	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
	"github.com/spec-kit/org-hierarchy/internal/service"
)

// AuditLogsHandler exposes the audit trail.
type AuditLogsHandler struct {
	uow      *service.UnitOfWork
	recorder *service.AuditRecorder
}

// NewAuditLogsHandler constructs handler.
func NewAuditLogsHandler(uow *service.UnitOfWork, recorder *service.AuditRecorder) *AuditLogsHandler {
	return &AuditLogsHandler{uow: uow, recorder: recorder}
}

// List handles GET /audit-logs.
func (h *AuditLogsHandler) List(c *fiber.Ctx) error {
	q, err := parseAuditQuery(c)
	if err != nil {
		return err
	}
	var page *service.AuditLogPage
	err = h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		page, err = h.recorder.ListAuditLogs(c.UserContext(), tx, q)
		return err
	})
	if err != nil {
		return err
	}

	resp := dto.AuditLogPageResponse{
		Items:  make([]dto.AuditLogResponse, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i := range page.Items {
		resp.Items = append(resp.Items, dto.NewAuditLogResponse(&page.Items[i]))
	}
	return c.JSON(data(resp))
}

// Get handles GET /audit-logs/:id.
func (h *AuditLogsHandler) Get(c *fiber.Ctx) error {
	var entry *domain.AuditLog
	err := h.uow.Do(c.UserContext(), func(tx repository.Tx) error {
		var err error
		entry, err = h.recorder.GetAuditLog(c.UserContext(), tx, c.Params("id"))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewAuditLogResponse(entry)))
}

func parseAuditQuery(c *fiber.Ctx) (service.AuditLogQuery, error) {
	q := service.AuditLogQuery{
		EntityType:      c.Query("entity_type"),
		EntityID:        c.Query("entity_id"),
		ChangeType:      c.Query("change_type"),
		ChangedByUserID: c.Query("changed_by_user_id"),
		Order:           c.Query("order"),
	}
	var err error
	if q.DateFrom, err = parseTimeQuery(c, "date_from"); err != nil {
		return q, err
	}
	if q.DateTo, err = parseTimeQuery(c, "date_to"); err != nil {
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
