package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/api/dto"
	"github.com/spec-kit/ticket-assistant/internal/auth"
	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/service"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

const minSearchTermRunes = 2

// TicketingHandler exposes the ticketing endpoints: lookups, ticket creation and queries.
type TicketingHandler struct {
	factory    *ticketing.Factory
	reconciler *service.ReconciliationService
	queries    *service.TicketQueryService
	assistant  *service.AssistantService
	logger     *zap.Logger
}

// TicketingDependencies bundles collaborators for the handler.
type TicketingDependencies struct {
	Factory    *ticketing.Factory
	Reconciler *service.ReconciliationService
	Queries    *service.TicketQueryService
	Assistant  *service.AssistantService
	Logger     *zap.Logger
}

// NewTicketingHandler constructs handler.
func NewTicketingHandler(deps TicketingDependencies) *TicketingHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketingHandler{
		factory:    deps.Factory,
		reconciler: deps.Reconciler,
		queries:    deps.Queries,
		assistant:  deps.Assistant,
		logger:     logger,
	}
}

func (h *TicketingHandler) client(c *fiber.Ctx) (*ticketing.Client, error) {
	creds := CredentialsFrom(c)
	return h.factory.For(h.factory.Resolve(creds.TicketingURL, creds.TicketingToken))
}

// Groups GET /api/groups.
func (h *TicketingHandler) Groups(c *fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	groups, err := client.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"groups": groups}})
}

// SearchCustomers GET /api/search-customers?query=.
func (h *TicketingHandler) SearchCustomers(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("query"))
	if len([]rune(term)) < minSearchTermRunes {
		return apperrors.NewValidationError("search term must be at least 2 characters", map[string]any{"query": term})
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	customers, err := client.SearchCustomers(c.UserContext(), term, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"customers": customers, "count": len(customers)}})
}

// CheckCustomer POST /api/check-customer.
func (h *TicketingHandler) CheckCustomer(c *fiber.Ctx) error {
	var req dto.CheckCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	customer, err := client.FindCustomerByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if err != nil {
		return err
	}
	if customer == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{
			"exists":  false,
			"message": "no existing customer found; a new customer will be created",
		}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"exists":   true,
		"customer": dto.NewCustomerResponse(customer),
	}})
}

// CheckOrganization POST /api/check-organization.
func (h *TicketingHandler) CheckOrganization(c *fiber.Ctx) error {
	var req dto.CheckOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("organization name required", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	org, err := client.FindOrganizationByName(c.UserContext(), strings.TrimSpace(req.Name))
	if err != nil {
		return err
	}
	if org == nil {
		return c.JSON(fiber.Map{"data": fiber.Map{
			"exists":  false,
			"message": "no existing organization found; a new organization will be created",
		}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"exists":       true,
		"organization": dto.NewOrganizationResponse(org),
	}})
}

// CreateTicket POST /api/create-ticket.
func (h *TicketingHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	res, err := h.reconciler.ReconcileAndCreateTicket(c.UserContext(), client, service.ReconcileInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Organization:  req.Organization,
		TicketTitle:   req.TicketTitle,
		TicketBody:    req.TicketBody,
		OriginalText:  req.OriginalText,
		Group:         req.Group,
		CreateAsEmail: req.CreateAsEmail,
		RequestedBy:   auth.Username(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCreateTicketResponse(res)})
}

// CustomerTickets POST /api/customer-tickets.
func (h *TicketingHandler) CustomerTickets(c *fiber.Ctx) error {
	var req dto.CustomerTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	overview, err := h.queries.GetTicketsForCustomer(c.UserContext(), client, req.Email, service.TicketQueryOptions{
		Limit:          req.Limit,
		ExpandArticles: true,
	})
	if err != nil {
		return err
	}
	var summary *service.Completion
	if req.IncludeSummary {
		summary = h.summarize(c, overview, completion.ScopeCustomer, req.ModelSelection)
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketOverviewResponse(overview, summary)})
}

// OrganizationTickets POST /api/organization-tickets.
func (h *TicketingHandler) OrganizationTickets(c *fiber.Ctx) error {
	var req dto.OrganizationTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	overview, err := h.queries.GetTicketsForOrganization(c.UserContext(), client, req.OrganizationName, service.TicketQueryOptions{
		Limit:          req.Limit,
		ExpandArticles: true,
	})
	if err != nil {
		return err
	}
	var summary *service.Completion
	if req.IncludeSummary {
		summary = h.summarize(c, overview, completion.ScopeOrganization, req.ModelSelection)
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketOverviewResponse(overview, summary)})
}

// summarize never fails the query; a missing key or failing provider yields no summary.
func (h *TicketingHandler) summarize(c *fiber.Ctx, overview *service.TicketOverview, scope string, sel dto.ModelSelection) *service.Completion {
	summary, err := h.assistant.SummarizeTickets(c.UserContext(), overview.Tickets, scope, sel.Selector(CredentialsFrom(c).CloudAPIKey))
	if err != nil {
		h.logger.Warn("ticket summary failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	return summary
}

// TicketDetail GET /api/ticket/:ticketId.
func (h *TicketingHandler) TicketDetail(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	ticket, err := h.queries.GetTicketDetail(c.UserContext(), client, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(*ticket),
		Articles: ticket.Articles,
	}})
}

// Reply POST /api/ticket/:ticketId/reply.
func (h *TicketingHandler) Reply(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.client(c)
	if err != nil {
		return err
	}
	article, err := h.assistant.PostReply(c.UserContext(), client, ticketID, req.Body, req.Internal, auth.Username(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"article": article}})
}

func ticketIDParam(c *fiber.Ctx) (int, error) {
	raw := c.Params("ticketId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": raw})
	}
	return id, nil
}
