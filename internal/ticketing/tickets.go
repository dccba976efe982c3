package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

const senderCustomer = "Customer"

type articlePayload struct {
	TicketID int    `json:"ticket_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body"`
	Type     string `json:"type"`
	Internal bool   `json:"internal"`
	Sender   string `json:"sender,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

type createTicketRequest struct {
	Title      string         `json:"title"`
	GroupID    int            `json:"group_id"`
	CustomerID int            `json:"customer_id"`
	Article    articlePayload `json:"article"`
}

// CreateTicket opens a ticket with its first article on behalf of the customer.
// Email articles carry the customer as sender and the support address as recipient.
func (c *Client) CreateTicket(ctx context.Context, in domain.TicketCreate) (*domain.Ticket, error) {
	customer, err := c.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	articleType := in.Article.Type
	if articleType == "" {
		articleType = domain.ArticleTypeNote
	}
	subject := in.Article.Subject
	if subject == "" {
		subject = in.Title
	}
	article := articlePayload{
		Subject:  subject,
		Body:     in.Article.Body,
		Type:     string(articleType),
		Internal: in.Article.InternalOrDefault(),
		Sender:   senderCustomer,
	}
	if articleType.IsEmail() {
		article.From = customer.Email
		article.To = c.supportAddress
	}

	req := createTicketRequest{
		Title:      in.Title,
		GroupID:    in.GroupID,
		CustomerID: in.CustomerID,
		Article:    article,
	}
	var ticket domain.Ticket
	if err := c.post(ctx, "create ticket", "/tickets", req, &ticket); err != nil {
		return nil, err
	}
	c.logger.Info("ticket created",
		zap.Int("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.Number),
		zap.Int("group_id", in.GroupID),
		zap.String("article_type", string(articleType)))
	return &ticket, nil
}

// GetTicket loads one ticket with its referenced names expanded.
func (c *Client) GetTicket(ctx context.Context, id int) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := c.get(ctx, "load ticket", fmt.Sprintf("/tickets/%d", id), url.Values{"expand": {"true"}}, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicketArticles returns the message thread of a ticket.
func (c *Client) GetTicketArticles(ctx context.Context, id int) ([]domain.Article, error) {
	var articles []domain.Article
	if err := c.get(ctx, "load ticket articles", fmt.Sprintf("/ticket_articles/by_ticket/%d", id), nil, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, nil
}

// AddArticle appends a message to an existing ticket.
func (c *Client) AddArticle(ctx context.Context, ticketID int, in domain.ArticleCreate) (*domain.Article, error) {
	articleType := in.Type
	if articleType == "" {
		articleType = domain.ArticleTypeNote
	}
	req := articlePayload{
		TicketID: ticketID,
		Subject:  in.Subject,
		Body:     in.Body,
		Type:     string(articleType),
		Internal: in.InternalOrDefault(),
	}
	var article domain.Article
	if err := c.post(ctx, "add article", "/ticket_articles", req, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// SearchTicketsByCustomer returns the customer's tickets, newest first.
func (c *Client) SearchTicketsByCustomer(ctx context.Context, customerID, limit int) ([]domain.Ticket, error) {
	return c.searchTickets(ctx, "search customer tickets", fmt.Sprintf("customer_id:%d", customerID), limit)
}

// SearchTicketsByOrganization returns the organization's tickets, newest first.
func (c *Client) SearchTicketsByOrganization(ctx context.Context, organizationID, limit int) ([]domain.Ticket, error) {
	return c.searchTickets(ctx, "search organization tickets", fmt.Sprintf("organization_id:%d", organizationID), limit)
}

func (c *Client) searchTickets(ctx context.Context, operation, query string, limit int) ([]domain.Ticket, error) {
	params := url.Values{
		"query":    {query},
		"sort_by":  {"created_at"},
		"order_by": {"desc"},
		"expand":   {"true"},
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var raw json.RawMessage
	if err := c.get(ctx, operation, "/tickets/search", params, &raw); err != nil {
		return nil, err
	}
	tickets, err := decodeTicketSearch(raw)
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, 0, "unexpected search response", err)
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

// ticketSearchAssets is the non-expanded search shape: ids plus an asset index.
type ticketSearchAssets struct {
	Tickets []int `json:"tickets"`
	Assets  struct {
		Ticket map[string]domain.Ticket `json:"Ticket"`
	} `json:"assets"`
}

func decodeTicketSearch(raw json.RawMessage) ([]domain.Ticket, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.Ticket{}, nil
	}
	if trimmed[0] == '[' {
		var tickets []domain.Ticket
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return nil, err
		}
		return tickets, nil
	}

	var indexed ticketSearchAssets
	if err := json.Unmarshal(trimmed, &indexed); err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(indexed.Tickets))
	for _, id := range indexed.Tickets {
		if ticket, ok := indexed.Assets.Ticket[strconv.Itoa(id)]; ok {
			tickets = append(tickets, ticket)
		}
	}
	return tickets, nil
}
