package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// DefaultTicketLimit caps ticket searches when the caller sets no limit.
const DefaultTicketLimit = 50

// TicketQueryOptions tunes an overview query.
type TicketQueryOptions struct {
	Limit          int
	ExpandArticles bool
}

// TicketOverview is the read-side result for one customer or organization.
type TicketOverview struct {
	Customer     *domain.Customer
	Organization *domain.Organization
	TotalCount   int
	Tickets      []domain.Ticket
}

// TicketQueryService lists tickets for a customer or an organization. It never creates entities.
type TicketQueryService struct {
	logger *zap.Logger
}

// NewTicketQueryService constructs the service.
func NewTicketQueryService(logger *zap.Logger) *TicketQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketQueryService{logger: logger}
}

// GetTicketsForCustomer resolves the customer by exact email and lists their tickets newest first.
func (s *TicketQueryService) GetTicketsForCustomer(ctx context.Context, api TicketingAPI, email string, opts TicketQueryOptions) (*TicketOverview, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("customer email is required", nil)
	}
	customer, err := api.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperrors.NewNotFound("customer", map[string]any{"email": email})
	}
	tickets, err := api.SearchTicketsByCustomer(ctx, customer.ID, opts.limit())
	if err != nil {
		return nil, err
	}
	return &TicketOverview{
		Customer:   customer,
		TotalCount: len(tickets),
		Tickets:    s.expand(ctx, api, tickets, opts),
	}, nil
}

// GetTicketsForOrganization resolves the organization by exact name and lists its tickets newest first.
func (s *TicketQueryService) GetTicketsForOrganization(ctx context.Context, api TicketingAPI, name string, opts TicketQueryOptions) (*TicketOverview, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("organization name is required", nil)
	}
	org, err := api.FindOrganizationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.NewNotFound("organization", map[string]any{"name": name})
	}
	tickets, err := api.SearchTicketsByOrganization(ctx, org.ID, opts.limit())
	if err != nil {
		return nil, err
	}
	return &TicketOverview{
		Organization: org,
		TotalCount:   len(tickets),
		Tickets:      s.expand(ctx, api, tickets, opts),
	}, nil
}

// GetTicketDetail returns one ticket with its full article thread.
func (s *TicketQueryService) GetTicketDetail(ctx context.Context, api TicketingAPI, ticketID int) (*domain.Ticket, error) {
	if ticketID <= 0 {
		return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": ticketID})
	}
	ticket, err := api.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	articles, err := api.GetTicketArticles(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Articles = articles
	if ticket.Articles == nil {
		ticket.Articles = []domain.Article{}
	}
	return ticket, nil
}

func (s *TicketQueryService) expand(ctx context.Context, api TicketingAPI, tickets []domain.Ticket, opts TicketQueryOptions) []domain.Ticket {
	if !opts.ExpandArticles || len(tickets) == 0 {
		return tickets
	}
	return api.GetTicketsWithArticles(ctx, tickets)
}

func (o TicketQueryOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultTicketLimit
	}
	return o.Limit
}
