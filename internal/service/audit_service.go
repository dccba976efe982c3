package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/repository"
)

const defaultAuditListLimit = 50

// AuditService records domain events into the audit and usage ledgers.
// Either repository may be nil when no database is configured.
type AuditService struct {
	dispatcher events.Dispatcher
	audits     repository.TicketAuditRepository
	usage      repository.UsageRepository
	logger     *zap.Logger
}

// AuditDependencies bundles collaborators for the audit service.
type AuditDependencies struct {
	Dispatcher events.Dispatcher
	AuditRepo  repository.TicketAuditRepository
	UsageRepo  repository.UsageRepository
	Logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: deps.Dispatcher,
		audits:     deps.AuditRepo,
		usage:      deps.UsageRepo,
		logger:     logger,
	}
}

// AuditedEvents lists the event types the audit service consumes.
var AuditedEvents = []events.EventType{
	events.EventTicketCreated,
	events.EventReplyPosted,
	events.EventCompletionUsed,
}

// RegisterHandlers subscribes Handle synchronously to the configured dispatcher.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range AuditedEvents {
		a.dispatcher.Subscribe(eventType, a.Handle)
	}
}

// Handle records one event.
func (a *AuditService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTicketCreated:
		return a.handleTicketCreated(ctx, event)
	case events.EventReplyPosted:
		return a.handleReplyPosted(ctx, event)
	case events.EventCompletionUsed:
		return a.handleCompletionUsed(ctx, event)
	default:
		return nil
	}
}

// RecentTickets lists the latest tickets opened through this service.
func (a *AuditService) RecentTickets(ctx context.Context, limit int) ([]domain.TicketAudit, error) {
	if a.audits == nil {
		return []domain.TicketAudit{}, nil
	}
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	entries, err := a.audits.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.TicketAudit{}
	}
	return entries, nil
}

// UsageTotals aggregates recorded completion usage per model.
func (a *AuditService) UsageTotals(ctx context.Context) ([]domain.UsageTotals, error) {
	if a.usage == nil {
		return []domain.UsageTotals{}, nil
	}
	totals, err := a.usage.Totals(ctx)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []domain.UsageTotals{}
	}
	return totals, nil
}

func (a *AuditService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	a.logger.Info("TicketCreated",
		zap.Int("ticket_id", event.TicketID),
		zap.String("ticket_number", payload.TicketNumber),
		zap.String("actor", event.Actor.Username))
	if a.audits == nil {
		return nil
	}
	return a.audits.Record(ctx, &domain.TicketAudit{
		ID:             eventID(event),
		TicketID:       event.TicketID,
		TicketNumber:   payload.TicketNumber,
		CustomerID:     payload.CustomerID,
		CustomerEmail:  payload.CustomerEmail,
		OrganizationID: payload.OrganizationID,
		GroupID:        payload.GroupID,
		ArticleType:    payload.ArticleType,
		CreatedBy:      event.Actor.Username,
		CreatedAt:      eventTime(event),
	})
}

func (a *AuditService) handleReplyPosted(_ context.Context, event events.Event) error {
	a.logger.Info("ReplyPosted", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleCompletionUsed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CompletionUsedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	a.logger.Debug("CompletionUsed",
		zap.String("operation", payload.Operation),
		zap.String("model", payload.Model),
		zap.Float64("cost", payload.Usage.Cost))
	if a.usage == nil {
		return nil
	}
	return a.usage.Record(ctx, &domain.UsageRecord{
		ID:        eventID(event),
		Operation: payload.Operation,
		Model:     payload.Model,
		Usage:     payload.Usage,
		CreatedAt: eventTime(event),
	})
}

// eventID keys audit rows by the event, so a redelivered event is stored once.
func eventID(event events.Event) string {
	if event.ID != "" {
		return event.ID
	}
	return uuid.NewString()
}

func eventTime(event events.Event) time.Time {
	if event.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return event.Timestamp
}
