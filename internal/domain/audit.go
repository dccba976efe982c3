package domain

import "time"

// TicketAudit records a ticket opened through this service.
type TicketAudit struct {
	ID             string      `json:"id"`
	TicketID       int         `json:"ticket_id"`
	TicketNumber   string      `json:"ticket_number"`
	CustomerID     int         `json:"customer_id"`
	CustomerEmail  string      `json:"customer_email"`
	OrganizationID *int        `json:"organization_id"`
	GroupID        int         `json:"group_id"`
	ArticleType    ArticleType `json:"article_type"`
	CreatedBy      string      `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
}

// UsageRecord records one generative-text call.
type UsageRecord struct {
	ID        string
	Operation string
	Model     string
	Usage     CompletionUsage
	CreatedAt time.Time
}

// UsageTotals aggregates usage per model.
type UsageTotals struct {
	Model        string  `json:"model"`
	Calls        int64   `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
}
