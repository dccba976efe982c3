package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/locking"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// DefaultGroupName is used when the caller names no group.
const DefaultGroupName = "Support"

// ReconciliationService resolves or creates organization and customer, then opens the ticket.
type ReconciliationService struct {
	locker       locking.Locker
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	defaultGroup string
}

// ReconciliationDependencies bundles collaborators for the reconciliation service.
type ReconciliationDependencies struct {
	Locker       locking.Locker
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	DefaultGroup string
}

// ReconcileInput carries the extracted ticket fields.
type ReconcileInput struct {
	CustomerName  string
	CustomerEmail string
	Organization  string
	TicketTitle   string
	TicketBody    string
	// OriginalText is the unprocessed customer text, used when TicketBody is blank.
	OriginalText  string
	Group         string
	CreateAsEmail bool
	RequestedBy   string
}

// ReconcileResult is the outcome of a successful reconciliation.
type ReconcileResult struct {
	Ticket              *domain.Ticket
	Customer            *domain.Customer
	Organization        *domain.Organization
	TicketURL           string
	CustomerCreated     bool
	OrganizationCreated bool
}

// NewReconciliationService constructs the service.
func NewReconciliationService(deps ReconciliationDependencies) *ReconciliationService {
	locker := deps.Locker
	if locker == nil {
		locker = locking.NewMemoryLocker(locking.DefaultWait)
	}
	group := strings.TrimSpace(deps.DefaultGroup)
	if group == "" {
		group = DefaultGroupName
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		locker:       locker,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		defaultGroup: group,
	}
}

// ReconcileAndCreateTicket runs find-or-create for organization and customer and
// creates one ticket. Nothing is rolled back when a later step fails; a retry
// reuses the records created so far.
func (s *ReconciliationService) ReconcileAndCreateTicket(ctx context.Context, api TicketingAPI, input ReconcileInput) (*ReconcileResult, error) {
	email := strings.TrimSpace(input.CustomerEmail)
	title := strings.TrimSpace(input.TicketTitle)
	orgName := strings.TrimSpace(input.Organization)
	if missing := missingRequired(email, title); len(missing) > 0 {
		return nil, apperrors.NewValidationError("customer email and ticket title are required", map[string]any{
			"missing": missing,
		})
	}

	keys := []string{locking.Key("customer", email)}
	if orgName != "" {
		keys = append(keys, locking.Key("organization", orgName))
	}
	unlock, err := locking.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, lockError(err, keys)
	}
	defer unlock()

	result := &ReconcileResult{}
	var orgID *int
	if orgName != "" {
		org, created, err := s.findOrCreateOrganization(ctx, api, orgName)
		if err != nil {
			return nil, err
		}
		result.Organization, result.OrganizationCreated = org, created
		orgID = &org.ID
	}

	customer, created, err := s.findOrCreateCustomer(ctx, api, email, strings.TrimSpace(input.CustomerName), orgID)
	if err != nil {
		return nil, err
	}
	if !created && orgID != nil && !sameOrganization(customer.OrganizationID, *orgID) {
		customer = s.relinkCustomer(ctx, api, customer, *orgID)
	}
	result.Customer, result.CustomerCreated = customer, created

	groupName := strings.TrimSpace(input.Group)
	if groupName == "" {
		groupName = s.defaultGroup
	}
	groupID, err := api.ResolveGroupID(ctx, groupName)
	if err != nil {
		return nil, err
	}

	body := input.TicketBody
	if strings.TrimSpace(body) == "" {
		body = input.OriginalText
	}
	articleType := domain.ArticleTypeNote
	if input.CreateAsEmail {
		articleType = domain.ArticleTypeEmail
	}
	internal := !input.CreateAsEmail

	ticket, err := api.CreateTicket(ctx, domain.TicketCreate{
		Title:      title,
		GroupID:    groupID,
		CustomerID: customer.ID,
		Article: domain.ArticleCreate{
			Subject:  title,
			Body:     body,
			Type:     articleType,
			Internal: &internal,
		},
	})
	if err != nil {
		return nil, err
	}
	result.Ticket = ticket
	result.TicketURL = api.Connection().TicketURL(ticket.ID)

	s.logger.Info("ticket created",
		zap.Int("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.Number),
		zap.Int("customer_id", customer.ID),
		zap.Bool("customer_created", result.CustomerCreated),
		zap.Bool("organization_created", result.OrganizationCreated),
		zap.Int("group_id", groupID))

	if err := publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.StaffActor(input.RequestedBy),
		Payload: events.TicketCreatedPayload{
			TicketNumber:        ticket.Number,
			Title:               title,
			GroupID:             groupID,
			CustomerID:          customer.ID,
			CustomerEmail:       customer.Email,
			CustomerCreated:     result.CustomerCreated,
			OrganizationID:      orgID,
			OrganizationCreated: result.OrganizationCreated,
			ArticleType:         articleType,
		},
	}); err != nil {
		s.logger.Warn("ticket_created handlers failed", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}
	return result, nil
}

func (s *ReconciliationService) findOrCreateOrganization(ctx context.Context, api TicketingAPI, name string) (*domain.Organization, bool, error) {
	org, err := api.FindOrganizationByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if org != nil {
		return org, false, nil
	}
	org, createErr := api.CreateOrganization(ctx, name)
	if createErr == nil {
		return org, true, nil
	}
	// another instance may have won the race; the remote name constraint rejects us
	if existing, err := api.FindOrganizationByName(ctx, name); err == nil && existing != nil {
		s.logger.Info("organization appeared concurrently, reusing it", zap.String("organization", name))
		return existing, false, nil
	}
	return nil, false, createErr
}

func (s *ReconciliationService) findOrCreateCustomer(ctx context.Context, api TicketingAPI, email, name string, orgID *int) (*domain.Customer, bool, error) {
	customer, err := api.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if customer != nil {
		return customer, false, nil
	}
	customer, createErr := api.CreateCustomer(ctx, email, name, orgID)
	if createErr == nil {
		return customer, true, nil
	}
	if existing, err := api.FindCustomerByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Info("customer appeared concurrently, reusing it", zap.String("email", email))
		return existing, false, nil
	}
	return nil, false, createErr
}

func (s *ReconciliationService) relinkCustomer(ctx context.Context, api TicketingAPI, customer *domain.Customer, orgID int) *domain.Customer {
	updated, err := api.UpdateCustomerOrganization(ctx, customer.ID, orgID)
	if err != nil {
		s.logger.Warn("relinking customer to organization failed; keeping previous record",
			zap.Int("customer_id", customer.ID),
			zap.Int("organization_id", orgID),
			zap.Error(err))
		return customer
	}
	if updated == nil {
		return customer
	}
	return updated
}

func sameOrganization(current *int, want int) bool {
	return current != nil && *current == want
}

func missingRequired(email, title string) []string {
	var missing []string
	if email == "" {
		missing = append(missing, "customer_email")
	}
	if title == "" {
		missing = append(missing, "ticket_title")
	}
	return missing
}

// lockError keeps contention apart from lock backend failures and expired requests.
func lockError(err error, keys []string) error {
	switch {
	case errors.Is(err, locking.ErrLockTimeout):
		return apperrors.NewBusy("customer is being reconciled by another request", map[string]any{
			"keys": keys,
		}, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewRemoteTimeout("acquire lock", err)
	default:
		return apperrors.NewRemoteAPIError("acquire lock", 0, "", err)
	}
}
