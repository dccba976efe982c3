package domain

import "time"

// Ticket is a helpdesk ticket as returned by the ticketing API.
type Ticket struct {
	ID             int       `json:"id"`
	Number         string    `json:"number"`
	Title          string    `json:"title"`
	GroupID        int       `json:"group_id"`
	CustomerID     int       `json:"customer_id"`
	OrganizationID *int      `json:"organization_id,omitempty"`
	State          string    `json:"state,omitempty"`
	Priority       string    `json:"priority,omitempty"`
	Group          string    `json:"group,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	// Articles is only set on tickets expanded with their message thread.
	Articles []Article `json:"articles,omitempty"`
}

// Expanded reports whether the ticket carries its article thread.
func (t *Ticket) Expanded() bool {
	return t.Articles != nil
}

// TicketCreate describes a ticket to open together with its first article.
type TicketCreate struct {
	Title      string
	GroupID    int
	CustomerID int
	Article    ArticleCreate
}
