package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// EdenAI calls the multi-provider chat endpoint of Eden AI.
type EdenAI struct {
	baseURL string
	apiKey  string
	http    *http.Client
	catalog *Catalog
}

// NewEdenAI builds a provider bound to one API key.
func NewEdenAI(baseURL, apiKey string, httpClient *http.Client, catalog *Catalog) *EdenAI {
	return &EdenAI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		catalog: catalog,
	}
}

type edenHistoryItem struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type edenChatRequest struct {
	Providers           string            `json:"providers"`
	Text                string            `json:"text"`
	ChatbotGlobalAction string            `json:"chatbot_global_action"`
	PreviousHistory     []edenHistoryItem `json:"previous_history"`
	Temperature         float64           `json:"temperature"`
	MaxTokens           int               `json:"max_tokens"`
}

type edenProviderResult struct {
	Status        string  `json:"status"`
	GeneratedText string  `json:"generated_text"`
	Cost          float64 `json:"cost"`
	Error         *struct {
		Message string `json:"message"`
	} `json:"error"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat turn. The response is keyed by provider name.
func (e *EdenAI) Complete(ctx context.Context, req Request) (*Result, error) {
	const operation = "eden ai chat"
	provider := e.catalog.ProviderFor(req.Model)

	history := make([]edenHistoryItem, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, edenHistoryItem{Role: m.Role, Message: m.Content})
	}
	payload, err := json.Marshal(edenChatRequest{
		Providers:           provider,
		Text:                req.Prompt,
		ChatbotGlobalAction: req.System,
		PreviousHistory:     history,
		Temperature:         req.Temperature,
		MaxTokens:           req.MaxTokens,
	})
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, 0, "", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/text/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, 0, "", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewRemoteAPIError(operation, resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}

	var body map[string]edenProviderResult
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, apperrors.NewRemoteAPIError(operation, resp.StatusCode, "", err)
	}
	result, ok := body[provider]
	if !ok {
		return nil, apperrors.NewRemoteAPIError(operation, resp.StatusCode, "no result for provider "+provider, nil)
	}
	if result.Status == "fail" || strings.TrimSpace(result.GeneratedText) == "" {
		detail := "empty response from provider " + provider
		if result.Error != nil && result.Error.Message != "" {
			detail = result.Error.Message
		}
		return nil, apperrors.NewRemoteAPIError(operation, resp.StatusCode, detail, nil)
	}

	usage := domain.CompletionUsage{Cost: result.Cost, Currency: e.catalog.Currency}
	if result.Usage != nil {
		usage.InputTokens = result.Usage.PromptTokens
		usage.OutputTokens = result.Usage.CompletionTokens
		usage.TotalTokens = result.Usage.TotalTokens
	}
	return &Result{
		Text:  strings.TrimSpace(result.GeneratedText),
		Usage: usage,
		Model: strings.ToLower(strings.TrimSpace(req.Model)),
	}, nil
}
