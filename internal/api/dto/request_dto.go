package dto

import (
	"strings"

	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// Request field names follow the browser client, which sends camelCase keys.

// LocalModelConfig addresses a self-hosted model endpoint. Older clients send apiUrl instead of url.
type LocalModelConfig struct {
	URL    string `json:"url"`
	APIURL string `json:"apiUrl"`
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// ModelSelection picks the model for a generative call.
type ModelSelection struct {
	Model       string            `json:"model"`
	LocalConfig *LocalModelConfig `json:"localConfig"`
}

// Selector converts the selection, attaching the caller's cloud key.
func (m ModelSelection) Selector(cloudKey string) completion.Selector {
	sel := completion.Selector{Model: m.Model, CloudAPIKey: cloudKey}
	if m.LocalConfig != nil {
		url := m.LocalConfig.URL
		if strings.TrimSpace(url) == "" {
			url = m.LocalConfig.APIURL
		}
		sel.Local = &completion.LocalConfig{URL: url, APIKey: m.LocalConfig.APIKey, Model: m.LocalConfig.Model}
	}
	return sel
}

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CheckCustomerRequest payload.
type CheckCustomerRequest struct {
	Email string `json:"email"`
}

// CheckOrganizationRequest payload.
type CheckOrganizationRequest struct {
	Name string `json:"name"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Organization  string `json:"organization"`
	TicketTitle   string `json:"ticketTitle"`
	TicketBody    string `json:"ticketBody"`
	Group         string `json:"group"`
	OriginalText  string `json:"originalText"`
	CreateAsEmail bool   `json:"createAsEmail"`
}

// CustomerTicketsRequest payload.
type CustomerTicketsRequest struct {
	ModelSelection
	Email          string `json:"email"`
	IncludeSummary bool   `json:"includeSummary"`
	Limit          int    `json:"limit"`
}

// OrganizationTicketsRequest payload.
type OrganizationTicketsRequest struct {
	ModelSelection
	OrganizationName string `json:"organizationName"`
	IncludeSummary   bool   `json:"includeSummary"`
	Limit            int    `json:"limit"`
}

// ReplyRequest payload for POST /api/ticket/:ticketId/reply.
type ReplyRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// AnalyzeTextRequest payload.
type AnalyzeTextRequest struct {
	ModelSelection
	Text string `json:"text"`
}

// GenerateResponseRequest payload. The history uses the ticketing API's article shape.
type GenerateResponseRequest struct {
	ModelSelection
	TicketHistory   []domain.Article `json:"ticketHistory"`
	UserInstruction string           `json:"userInstruction"`
}

// ChatRequest payload.
type ChatRequest struct {
	ModelSelection
	Message     string               `json:"message"`
	ChatHistory []completion.Message `json:"chatHistory"`
}

// LocalModelsRequest payload.
type LocalModelsRequest struct {
	APIURL string `json:"apiUrl"`
	APIKey string `json:"apiKey"`
}
