package dto

import (
	"time"

	"github.com/spec-kit/ticket-assistant/internal/document"
	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/service"
)

// AuthResponse carries an issued access token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

// CustomerResponse is the public projection of a customer.
type CustomerResponse struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	OrganizationID *int   `json:"organization_id"`
}

// OrganizationResponse is the public projection of an organization.
type OrganizationResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreatedTicket identifies a new ticket.
type CreatedTicket struct {
	ID     int    `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// CreateTicketResponse is returned by POST /api/create-ticket.
type CreateTicketResponse struct {
	Message             string                `json:"message"`
	Ticket              CreatedTicket         `json:"ticket"`
	Customer            CustomerResponse      `json:"customer"`
	Organization        *OrganizationResponse `json:"organization"`
	CustomerCreated     bool                  `json:"customer_created"`
	OrganizationCreated bool                  `json:"organization_created"`
}

// TicketResponse is a ticket, optionally with its thread. Articles is present
// exactly when the ticket was expanded, even if the thread is empty.
type TicketResponse struct {
	ID             int               `json:"id"`
	Number         string            `json:"number"`
	Title          string            `json:"title"`
	GroupID        int               `json:"group_id"`
	Group          string            `json:"group,omitempty"`
	CustomerID     int               `json:"customer_id"`
	OrganizationID *int              `json:"organization_id"`
	State          string            `json:"state,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Articles       *[]domain.Article `json:"articles,omitempty"`
}

// CompletionResponse carries a generated text and its cost.
type CompletionResponse struct {
	Text      string                  `json:"text"`
	CostInfo  *domain.CompletionUsage `json:"cost_info"`
	ModelUsed string                  `json:"model_used"`
}

// TicketOverviewResponse is returned by the customer and organization ticket queries.
type TicketOverviewResponse struct {
	Customer     *CustomerResponse     `json:"customer,omitempty"`
	Organization *OrganizationResponse `json:"organization,omitempty"`
	TicketCount  int                   `json:"ticket_count"`
	Tickets      []TicketResponse      `json:"tickets"`
	Summary      *CompletionResponse   `json:"summary"`
}

// TicketDetailResponse is returned by GET /api/ticket/:ticketId.
type TicketDetailResponse struct {
	Ticket   TicketResponse   `json:"ticket"`
	Articles []domain.Article `json:"articles"`
}

// AnalysisResponse is returned by POST /api/analyze-text.
type AnalysisResponse struct {
	Extracted domain.ExtractedTicket  `json:"extracted"`
	CostInfo  *domain.CompletionUsage `json:"cost_info"`
	ModelUsed string                  `json:"model_used,omitempty"`
	Fallback  bool                    `json:"fallback"`
}

// DocumentResponse is returned by POST /api/upload-document.
type DocumentResponse struct {
	Filename string         `json:"filename"`
	Type     string         `json:"type"`
	Text     string         `json:"text"`
	Stats    document.Stats `json:"stats"`
	Warnings []string       `json:"warnings,omitempty"`
}

// NewCustomerResponse maps a customer.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, Name: c.FullName(), Email: c.Email, OrganizationID: c.OrganizationID}
}

// NewOrganizationResponse maps an organization; nil stays nil.
func NewOrganizationResponse(o *domain.Organization) *OrganizationResponse {
	if o == nil {
		return nil
	}
	return &OrganizationResponse{ID: o.ID, Name: o.Name}
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:             t.ID,
		Number:         t.Number,
		Title:          t.Title,
		GroupID:        t.GroupID,
		Group:          t.Group,
		CustomerID:     t.CustomerID,
		OrganizationID: t.OrganizationID,
		State:          t.State,
		Priority:       t.Priority,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Expanded() {
		articles := t.Articles
		resp.Articles = &articles
	}
	return resp
}

// NewTicketResponses maps a list, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketResponse(t))
	}
	return out
}

// NewCompletionResponse maps a completion; a summary without a model call has no cost info.
func NewCompletionResponse(c *service.Completion) *CompletionResponse {
	if c == nil {
		return nil
	}
	resp := &CompletionResponse{Text: c.Text, ModelUsed: c.Model}
	if c.Model != "" {
		usage := c.Usage
		resp.CostInfo = &usage
	}
	return resp
}

// NewCreateTicketResponse maps a reconciliation result.
func NewCreateTicketResponse(res *service.ReconcileResult) CreateTicketResponse {
	return CreateTicketResponse{
		Message: "ticket created",
		Ticket: CreatedTicket{
			ID:     res.Ticket.ID,
			Number: res.Ticket.Number,
			Title:  res.Ticket.Title,
			URL:    res.TicketURL,
		},
		Customer:            NewCustomerResponse(res.Customer),
		Organization:        NewOrganizationResponse(res.Organization),
		CustomerCreated:     res.CustomerCreated,
		OrganizationCreated: res.OrganizationCreated,
	}
}

// NewTicketOverviewResponse maps a query result together with an optional summary.
func NewTicketOverviewResponse(o *service.TicketOverview, summary *service.Completion) TicketOverviewResponse {
	resp := TicketOverviewResponse{
		Organization: NewOrganizationResponse(o.Organization),
		TicketCount:  o.TotalCount,
		Tickets:      NewTicketResponses(o.Tickets),
		Summary:      NewCompletionResponse(summary),
	}
	if o.Customer != nil {
		customer := NewCustomerResponse(o.Customer)
		resp.Customer = &customer
	}
	return resp
}

// NewDocumentResponse maps an extracted document.
func NewDocumentResponse(doc *domain.ExtractedDocument) DocumentResponse {
	return DocumentResponse{
		Filename: doc.Filename,
		Type:     doc.Type,
		Text:     doc.Text,
		Stats:    document.ComputeStats(doc),
		Warnings: doc.Warnings,
	}
}
