package domain

import "time"

// ArticleType differentiates internal notes from email-like messages.
type ArticleType string

const (
	ArticleTypeNote  ArticleType = "note"
	ArticleTypeEmail ArticleType = "email"
)

// IsEmail reports whether the article is sent as an email-like message.
func (t ArticleType) IsEmail() bool {
	return t == ArticleTypeEmail
}

// Article is a single message within a ticket thread.
type Article struct {
	ID          int         `json:"id"`
	TicketID    int         `json:"ticket_id"`
	Subject     string      `json:"subject,omitempty"`
	Body        string      `json:"body"`
	ContentType string      `json:"content_type,omitempty"`
	Type        ArticleType `json:"type"`
	Internal    bool        `json:"internal"`
	Sender      string      `json:"sender,omitempty"`
	From        string      `json:"from,omitempty"`
	To          string      `json:"to,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ArticleCreate is the payload for a new article. A nil Internal picks the
// type's default: notes are internal, email messages are not.
type ArticleCreate struct {
	Subject  string
	Body     string
	Type     ArticleType
	Internal *bool
}

// InternalOrDefault resolves the internal flag.
func (a ArticleCreate) InternalOrDefault() bool {
	if a.Internal != nil {
		return *a.Internal
	}
	return !a.Type.IsEmail()
}
