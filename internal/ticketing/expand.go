package ticketing

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

const expandConcurrency = 4

// TicketLoader is what ExpandTickets needs to fill in a ticket.
type TicketLoader interface {
	GetTicket(ctx context.Context, id int) (*domain.Ticket, error)
	GetTicketArticles(ctx context.Context, id int) ([]domain.Article, error)
}

// GetTicketsWithArticles expands the first MaxExpandedTickets tickets.
func (c *Client) GetTicketsWithArticles(ctx context.Context, tickets []domain.Ticket) []domain.Ticket {
	return ExpandTickets(ctx, c, tickets, c.logger)
}

// ExpandTickets returns all tickets in their original order. The first
// MaxExpandedTickets are replaced by their full record with articles attached;
// a ticket that fails to load is logged and returned as given, without articles.
func ExpandTickets(ctx context.Context, loader TicketLoader, tickets []domain.Ticket, logger *zap.Logger) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	copy(out, tickets)
	for i := range out {
		out[i].Articles = nil
	}

	n := len(out)
	if n > MaxExpandedTickets {
		n = MaxExpandedTickets
	}

	var g errgroup.Group
	g.SetLimit(expandConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			id := out[i].ID
			detail, err := loader.GetTicket(ctx, id)
			if err != nil {
				logger.Warn("ticket expansion failed", zap.Int("ticket_id", id), zap.Error(err))
				return nil
			}
			articles, err := loader.GetTicketArticles(ctx, id)
			if err != nil {
				logger.Warn("ticket expansion failed", zap.Int("ticket_id", id), zap.Error(err))
				return nil
			}
			if articles == nil {
				articles = []domain.Article{}
			}
			expanded := *detail
			expanded.Articles = articles
			out[i] = expanded
			return nil
		})
	}
	_ = g.Wait()
	return out
}
