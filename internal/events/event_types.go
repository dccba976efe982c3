package events

import (
	"time"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventReplyPosted    EventType = "reply_posted"
	EventCompletionUsed EventType = "completion_used"
)

// ActorType tells who triggered an event.
type ActorType string

const (
	ActorStaff     ActorType = "staff"
	ActorAnonymous ActorType = "anonymous"
	ActorSystem    ActorType = "system"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type     ActorType `json:"type"`
	Username string    `json:"username,omitempty"`
}

// StaffActor returns the actor for a signed-in staff member, or an anonymous
// actor when authentication is disabled.
func StaffActor(username string) Actor {
	if username == "" {
		return Actor{Type: ActorAnonymous}
	}
	return Actor{Type: ActorStaff, Username: username}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int       `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber        string             `json:"ticket_number"`
	Title               string             `json:"title"`
	GroupID             int                `json:"group_id"`
	CustomerID          int                `json:"customer_id"`
	CustomerEmail       string             `json:"customer_email"`
	CustomerCreated     bool               `json:"customer_created"`
	OrganizationID      *int               `json:"organization_id,omitempty"`
	OrganizationCreated bool               `json:"organization_created"`
	ArticleType         domain.ArticleType `json:"article_type"`
}

// ReplyPostedPayload payload.
type ReplyPostedPayload struct {
	ArticleID   int    `json:"article_id"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}

// CompletionUsedPayload payload.
type CompletionUsedPayload struct {
	Operation string                 `json:"operation"`
	Model     string                 `json:"model"`
	Usage     domain.CompletionUsage `json:"usage"`
	Fallback  bool                   `json:"fallback,omitempty"`
}
