package domain

// ExtractedTicket holds ticket fields recovered from free-form customer text.
type ExtractedTicket struct {
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	Organization   string `json:"organization"`
	TicketTitle    string `json:"ticket_title"`
	TicketBody     string `json:"ticket_body"`
	SuggestedGroup string `json:"suggested_group"`
}

// ExtractedDocument is the plain text recovered from an uploaded file.
type ExtractedDocument struct {
	Filename  string   `json:"filename"`
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	PageCount *int     `json:"pages,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// CompletionUsage reports token consumption and cost of one completion.
type CompletionUsage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
}
