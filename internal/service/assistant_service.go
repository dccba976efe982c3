package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/events"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// NoTicketsSummary is returned instead of calling a model for an empty ticket list.
const NoTicketsSummary = "Keine Tickets gefunden."

// Operations recorded with completion usage.
const (
	OperationAnalyze = "analyze_text"
	OperationReply   = "generate_reply"
	OperationSummary = "summarize_tickets"
	OperationChat    = "chat"
)

// ProviderResolver maps a selector to a provider.
type ProviderResolver interface {
	Resolve(sel completion.Selector) (completion.Provider, completion.Selector, error)
}

var _ ProviderResolver = (*completion.Router)(nil)

// Completion is a generated text together with what it cost.
type Completion struct {
	Text  string
	Usage domain.CompletionUsage
	Model string
}

// Analysis is the result of AnalyzeText.
type Analysis struct {
	Fields   domain.ExtractedTicket
	Usage    *domain.CompletionUsage
	Model    string
	Fallback bool
}

// AssistantService drafts and summarizes with a generative-text provider.
type AssistantService struct {
	providers  ProviderResolver
	prompts    completion.Prompts
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssistantDependencies bundles collaborators for the assistant service.
type AssistantDependencies struct {
	Providers  ProviderResolver
	Prompts    completion.Prompts
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssistantService constructs the service.
func NewAssistantService(deps AssistantDependencies) *AssistantService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{
		providers:  deps.Providers,
		prompts:    deps.Prompts,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AnalyzeText extracts ticket fields from customer text. api may be nil; when
// set, its active groups are offered to the model. A failing provider or
// unparseable output degrades to the regex extractor.
func (s *AssistantService) AnalyzeText(ctx context.Context, api TicketingAPI, text string, sel completion.Selector) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("no text to analyze", nil)
	}
	provider, sel, err := s.providers.Resolve(sel)
	if err != nil {
		return nil, err
	}

	extractor := completion.FallbackExtractor{
		Primary: completion.ModelExtractor{Provider: provider, Model: sel.Model, Prompts: s.prompts},
		Logger:  s.logger,
	}
	res, err := extractor.Extract(ctx, text, s.groupNames(ctx, api))
	if err != nil {
		return nil, err
	}
	if res.Usage != nil {
		s.recordUsage(ctx, OperationAnalyze, res.Model, *res.Usage, res.Fallback)
	}
	return &Analysis{Fields: res.Fields, Usage: res.Usage, Model: res.Model, Fallback: res.Fallback}, nil
}

// GenerateReply drafts a reply to a ticket thread following the agent's instruction.
func (s *AssistantService) GenerateReply(ctx context.Context, history []domain.Article, instruction string, sel completion.Selector) (*Completion, error) {
	if len(history) == 0 || strings.TrimSpace(instruction) == "" {
		return nil, apperrors.NewValidationError("ticket history and instruction are required", nil)
	}
	return s.complete(ctx, OperationReply, sel, completion.Request{
		System:      s.prompts.ReplySystem(),
		Prompt:      s.prompts.Reply(history, instruction),
		Temperature: 0.7,
		MaxTokens:   1500,
	})
}

// SummarizeTickets writes an overview of a customer's or organization's tickets.
func (s *AssistantService) SummarizeTickets(ctx context.Context, tickets []domain.Ticket, scope string, sel completion.Selector) (*Completion, error) {
	if len(tickets) == 0 {
		return &Completion{Text: NoTicketsSummary}, nil
	}
	if scope != completion.ScopeOrganization {
		scope = completion.ScopeCustomer
	}
	return s.complete(ctx, OperationSummary, sel, completion.Request{
		System:      s.prompts.SummarySystem(),
		Prompt:      s.prompts.Summary(tickets, scope),
		Temperature: 0.5,
		MaxTokens:   1500,
	})
}

// Chat answers a free-form message. The history is supplied by the caller on every turn.
func (s *AssistantService) Chat(ctx context.Context, message string, history []completion.Message, sel completion.Selector) (*Completion, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	return s.complete(ctx, OperationChat, sel, completion.Request{
		System:      s.prompts.ChatSystem(),
		Prompt:      message,
		History:     history,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
}

// PostReply appends a note article to a ticket.
func (s *AssistantService) PostReply(ctx context.Context, api TicketingAPI, ticketID int, body string, internal bool, requestedBy string) (*domain.Article, error) {
	if ticketID <= 0 {
		return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_id": ticketID})
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("reply body is required", nil)
	}
	article, err := api.AddArticle(ctx, ticketID, domain.ArticleCreate{
		Body:     body,
		Type:     domain.ArticleTypeNote,
		Internal: &internal,
	})
	if err != nil {
		return nil, err
	}
	if err := publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventReplyPosted,
		TicketID: ticketID,
		Actor:    events.StaffActor(requestedBy),
		Payload: events.ReplyPostedPayload{
			ArticleID:   article.ID,
			Internal:    internal,
			BodyPreview: stringPreview(body, 120),
		},
	}); err != nil {
		s.logger.Warn("reply_posted handlers failed", zap.Int("ticket_id", ticketID), zap.Error(err))
	}
	return article, nil
}

func (s *AssistantService) complete(ctx context.Context, operation string, sel completion.Selector, req completion.Request) (*Completion, error) {
	provider, sel, err := s.providers.Resolve(sel)
	if err != nil {
		return nil, err
	}
	req.Model = sel.Model
	res, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, operation, res.Model, res.Usage, false)
	return &Completion{Text: res.Text, Usage: res.Usage, Model: res.Model}, nil
}

func (s *AssistantService) groupNames(ctx context.Context, api TicketingAPI) []string {
	if api == nil {
		return completion.DefaultGroups
	}
	groups, err := api.ListGroups(ctx)
	if err != nil {
		s.logger.Warn("could not load groups for analysis, using defaults", zap.Error(err))
		return completion.DefaultGroups
	}
	if len(groups) == 0 {
		return completion.DefaultGroups
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}

func (s *AssistantService) recordUsage(ctx context.Context, operation, model string, usage domain.CompletionUsage, fallback bool) {
	if err := publishEvent(ctx, s.dispatcher, events.Event{
		Type:  events.EventCompletionUsed,
		Actor: events.Actor{Type: events.ActorSystem},
		Payload: events.CompletionUsedPayload{
			Operation: operation,
			Model:     model,
			Usage:     usage,
			Fallback:  fallback,
		},
	}); err != nil {
		s.logger.Warn("completion_used handlers failed", zap.String("operation", operation), zap.Error(err))
	}
}
