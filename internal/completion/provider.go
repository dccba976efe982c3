package completion

import (
	"context"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// Message roles used in chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one earlier turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	// System frames the assistant's role for the call.
	System      string
	Prompt      string
	History     []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

// Result carries generated text with its usage accounting.
type Result struct {
	Text  string
	Usage domain.CompletionUsage
	Model string
}

// Provider turns a prompt into generated text.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}
