package service

import (
	"context"
	"strings"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
)

// TicketingAPI is the ticketing client surface the services work against.
// *ticketing.Client satisfies it.
type TicketingAPI interface {
	Connection() ticketing.Connection

	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	SearchCustomers(ctx context.Context, term string, limit int) ([]domain.CustomerSummary, error)
	CreateCustomer(ctx context.Context, email, name string, organizationID *int) (*domain.Customer, error)
	UpdateCustomerOrganization(ctx context.Context, customerID, organizationID int) (*domain.Customer, error)

	FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error)
	CreateOrganization(ctx context.Context, name string) (*domain.Organization, error)

	ListGroups(ctx context.Context) ([]domain.Group, error)
	ResolveGroupID(ctx context.Context, nameOrID string) (int, error)

	CreateTicket(ctx context.Context, in domain.TicketCreate) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id int) (*domain.Ticket, error)
	GetTicketArticles(ctx context.Context, id int) ([]domain.Article, error)
	AddArticle(ctx context.Context, ticketID int, in domain.ArticleCreate) (*domain.Article, error)
	SearchTicketsByCustomer(ctx context.Context, customerID, limit int) ([]domain.Ticket, error)
	SearchTicketsByOrganization(ctx context.Context, organizationID, limit int) ([]domain.Ticket, error)
	GetTicketsWithArticles(ctx context.Context, tickets []domain.Ticket) []domain.Ticket
}

var _ TicketingAPI = (*ticketing.Client)(nil)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	return dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
