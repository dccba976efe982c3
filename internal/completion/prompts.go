package completion

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// DefaultGroups is offered to the extraction prompt when the ticketing groups cannot be loaded.
var DefaultGroups = []string{"Support", "Beratung", "Technik", "Vertrieb"}

const messagePreviewRunes = 200

var plainTextPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from an article body.
func PlainText(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return strings.TrimSpace(body)
	}
	text := body
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>"} {
		text = strings.ReplaceAll(text, tag, tag+"\n")
	}
	text = plainTextPolicy.Sanitize(text)
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Prompts renders the prompt texts in a fixed response language.
type Prompts struct {
	Language string
}

// ExtractionSystem frames the ticket field extraction task.
func (p Prompts) ExtractionSystem(groups []string) string {
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	return fmt.Sprintf(`You analyse customer requests for a helpdesk.
Extract the following fields from the text and return them as JSON:
- customer_name: full name of the customer
- customer_email: email address of the customer
- organization: name of the organization or company, if any
- ticket_title: a concise ticket title (max 80 characters, in %s)
- ticket_body: the main content of the request
- suggested_group: recommended team, choose ONLY from: "%s"

Reply ONLY with a valid JSON object and no additional text.`, p.language(), strings.Join(groups, `", "`))
}

// ReplySystem frames reply drafting.
func (p Prompts) ReplySystem() string {
	return "You are a customer support agent writing email replies."
}

// Reply builds the reply prompt from the ticket thread and the agent's instruction.
func (p Prompts) Reply(history []domain.Article, instruction string) string {
	var b strings.Builder
	b.WriteString("You are a professional customer support agent.\n\nThis is the ticket history so far:\n")
	for i, article := range history {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		from := article.From
		if from == "" {
			from = "System"
		}
		fmt.Fprintf(&b, "[%d] %s (%s):\n%s\n", i+1, from, formatTime(article), PlainText(article.Body))
	}
	fmt.Fprintf(&b, "\nTask: %s\n\n", strings.TrimSpace(instruction))
	fmt.Fprintf(&b, `Write a professional, helpful reply in %s. The reply should
- be polite and customer oriented
- address the concrete request
- be clear and easy to understand
- contain a suitable greeting and closing

Reply ONLY with the email, without further explanations or comments.`, p.language())
	return b.String()
}

// SummarySystem frames ticket summaries.
func (p Prompts) SummarySystem() string {
	return "You are a customer service analyst who writes concise, helpful summaries."
}

// Summary builds the ticket overview prompt. Scope is "customer" or "organization".
func (p Prompts) Summary(tickets []domain.Ticket, scope string) string {
	var b strings.Builder
	b.WriteString("Write a concise summary of the ticket history.\n\n")
	if scope == ScopeOrganization {
		b.WriteString("ORGANIZATION OVERVIEW\n\n")
	} else {
		b.WriteString("CUSTOMER OVERVIEW\n\n")
	}
	fmt.Fprintf(&b, "Tickets (%d found):\n", len(tickets))
	for _, t := range tickets {
		id := t.Number
		if id == "" {
			id = fmt.Sprint(t.ID)
		}
		first, last := "no message", "no message"
		if n := len(t.Articles); n > 0 {
			first = preview(t.Articles[0].Body)
			last = preview(t.Articles[n-1].Body)
		}
		fmt.Fprintf(&b, "\nTicket #%s (%s):\n- Title: %s\n- State: %s | Priority: %s | Group: %s\n- Messages: %d\n- First message: %s\n- Last message: %s\n",
			id, t.CreatedAt.Format("2006-01-02"), t.Title,
			orUnknown(t.State), orUnknown(t.Priority), orUnknown(t.Group),
			len(t.Articles), first, last)
	}
	fmt.Fprintf(&b, `
Structure the summary as:
1. Overview: number of tickets, time span, main topics
2. State distribution
3. Main issues: the most frequent requests
4. Trends over time
5. Recommendations for customer service

Answer in %s in a professional but accessible style.`, p.language())
	return b.String()
}

// ChatSystem frames free-form chat.
func (p Prompts) ChatSystem() string {
	return fmt.Sprintf("You are a helpful AI assistant. Answer in %s and be friendly and helpful.", p.language())
}

// Summary scopes.
const (
	ScopeCustomer     = "customer"
	ScopeOrganization = "organization"
)

func (p Prompts) language() string {
	if p.Language == "" {
		return "German"
	}
	return p.Language
}

func preview(body string) string {
	text := PlainText(body)
	runes := []rune(text)
	if len(runes) <= messagePreviewRunes {
		return text
	}
	return string(runes[:messagePreviewRunes]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func formatTime(a domain.Article) string {
	if a.CreatedAt.IsZero() {
		return "unknown date"
	}
	return a.CreatedAt.Format("2006-01-02 15:04")
}
