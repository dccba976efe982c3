package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assistant/internal/service"
)

// AuditHandler exposes the local ticket trail and completion usage.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Tickets GET /api/audit/tickets?limit=.
func (h *AuditHandler) Tickets(c *fiber.Ctx) error {
	entries, err := h.audit.RecentTickets(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Usage GET /api/usage.
func (h *AuditHandler) Usage(c *fiber.Ctx) error {
	totals, err := h.audit.UsageTotals(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": totals})
}
