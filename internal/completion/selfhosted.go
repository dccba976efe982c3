package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// LocalConfig addresses an OpenAI-compatible self-hosted endpoint (Open WebUI).
type LocalConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// Valid reports whether URL and model are set.
func (l *LocalConfig) Valid() bool {
	return l != nil && strings.TrimSpace(l.URL) != "" && strings.TrimSpace(l.Model) != ""
}

// SelfHosted talks to Open WebUI through its OpenAI-compatible API under /api.
type SelfHosted struct {
	client   openai.Client
	model    string
	currency string
	logger   *zap.Logger
}

// NewSelfHosted builds a provider for the given endpoint.
func NewSelfHosted(cfg LocalConfig, httpClient *http.Client, currency string, logger *zap.Logger) *SelfHosted {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/") + "/api/"
	client := openai.NewClient(
		option.WithBaseURL(base),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &SelfHosted{client: client, model: cfg.Model, currency: currency, logger: logger}
}

// ListModels returns the ids of the models the endpoint serves.
func (s *SelfHosted) ListModels(ctx context.Context) ([]string, error) {
	page, err := s.client.Models.List(ctx)
	if err != nil {
		return nil, remoteError("list local models", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// pickModel keeps the configured model when served, else takes the first available one.
func (s *SelfHosted) pickModel(ctx context.Context) string {
	models, err := s.ListModels(ctx)
	if err != nil {
		s.logger.Warn("could not list local models", zap.Error(err))
		return s.model
	}
	if len(models) == 0 {
		return s.model
	}
	for _, id := range models {
		if id == s.model {
			return s.model
		}
	}
	s.logger.Info("local model not available, using first served model",
		zap.String("requested", s.model), zap.String("using", models[0]))
	return models[0]
}

// Complete runs a chat completion. Self-hosted calls cost nothing.
func (s *SelfHosted) Complete(ctx context.Context, req Request) (*Result, error) {
	model := s.pickModel(ctx)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, remoteError("local chat completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, apperrors.NewRemoteAPIError("local chat completion", 0, "empty response from local model", nil)
	}

	return &Result{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: domain.CompletionUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Cost:         0,
			Currency:     s.currency,
		},
		Model: "local-" + model,
	}, nil
}

func remoteError(operation string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperrors.NewRemoteAPIError(operation, apiErr.StatusCode, strings.TrimSpace(apiErr.RawJSON()), err)
	}
	return apperrors.NewRemoteAPIError(operation, 0, "", err)
}
