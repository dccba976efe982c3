package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/events"
	"github.com/spec-kit/ticket-assistant/internal/locking"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

func newReconciler(dispatcher events.Dispatcher) *ReconciliationService {
	return NewReconciliationService(ReconciliationDependencies{
		Locker:     locking.NewMemoryLocker(0),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
}

func TestReconcileNewCustomerWithoutOrganization(t *testing.T) {
	api := newFakeTicketing()
	api.groups = []domain.Group{{ID: 1, Name: "Users", Active: true}, {ID: 2, Name: "Support", Active: true}}

	var published []events.Event
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	res, err := newReconciler(dispatcher).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
		CustomerEmail: "a@b.com",
		TicketTitle:   "Login issue",
		TicketBody:    "I cannot log in since yesterday.",
		Group:         "Support",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Organization != nil || api.createdOrgs != 0 {
		t.Errorf("no organization expected, got %+v", res.Organization)
	}
	if !res.CustomerCreated || res.Customer.Email != "a@b.com" || res.Customer.Firstname != "a" {
		t.Errorf("unexpected customer %+v", res.Customer)
	}
	if res.Ticket.GroupID != 2 {
		t.Errorf("group id = %d, want 2", res.Ticket.GroupID)
	}
	articles := api.articles[res.Ticket.ID]
	if len(articles) != 1 || articles[0].Body != "I cannot log in since yesterday." {
		t.Fatalf("articles = %+v", articles)
	}
	if articles[0].Type != domain.ArticleTypeNote || !articles[0].Internal || articles[0].Subject != "Login issue" {
		t.Errorf("unexpected article %+v", articles[0])
	}
	if want := "https://zammad.example.com/#ticket/zoom/" + strconv.Itoa(res.Ticket.ID); res.TicketURL != want {
		t.Errorf("url = %q, want %q", res.TicketURL, want)
	}
	if len(published) != 1 || published[0].TicketID != res.Ticket.ID {
		t.Fatalf("published = %+v", published)
	}
	payload := published[0].Payload.(events.TicketCreatedPayload)
	if !payload.CustomerCreated || payload.GroupID != 2 || published[0].Actor.Type != events.ActorAnonymous {
		t.Errorf("payload = %+v", payload)
	}
}

func TestReconcileIsIdempotentForCustomerAndOrganization(t *testing.T) {
	api := newFakeTicketing()
	svc := newReconciler(nil)
	input := ReconcileInput{CustomerName: "Maria", CustomerEmail: "maria@example.com", Organization: "ACME GmbH", TicketTitle: "Drucker"}

	first, err := svc.ReconcileAndCreateTicket(context.Background(), api, input)
	if err != nil {
		t.Fatal(err)
	}
	input.CustomerEmail = "MARIA@example.com"
	input.Organization = "  acme gmbh "
	second, err := svc.ReconcileAndCreateTicket(context.Background(), api, input)
	if err != nil {
		t.Fatal(err)
	}

	if api.createdOrgs != 1 || api.createdCustomers != 1 {
		t.Fatalf("created orgs=%d customers=%d, want 1/1", api.createdOrgs, api.createdCustomers)
	}
	if first.Ticket.ID == second.Ticket.ID {
		t.Fatal("each call must create its own ticket")
	}
	if second.CustomerCreated || second.OrganizationCreated {
		t.Errorf("second call must reuse records: %+v", second)
	}
	if first.Customer.Firstname != "Maria" || first.Customer.Lastname != "" {
		t.Errorf("name split = %q/%q", first.Customer.Firstname, first.Customer.Lastname)
	}
	if first.Customer.OrganizationID == nil || *first.Customer.OrganizationID != first.Organization.ID {
		t.Errorf("new customer must be linked to the organization")
	}
}

func TestReconcileConcurrentCallsCreateOnce(t *testing.T) {
	api := newFakeTicketing()
	svc := newReconciler(nil)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
				CustomerEmail: "race@example.com",
				Organization:  "Race Inc",
				TicketTitle:   "Parallel",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if api.createdOrgs != 1 || api.createdCustomers != 1 || len(api.tickets) != 10 {
		t.Fatalf("orgs=%d customers=%d tickets=%d", api.createdOrgs, api.createdCustomers, len(api.tickets))
	}
}

func TestReconcileValidation(t *testing.T) {
	tests := []struct {
		name  string
		input ReconcileInput
		want  []string
	}{
		{"missing email", ReconcileInput{TicketTitle: "x"}, []string{"customer_email"}},
		{"blank title", ReconcileInput{CustomerEmail: "a@b.com", TicketTitle: "   "}, []string{"ticket_title"}},
		{"both", ReconcileInput{}, []string{"customer_email", "ticket_title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeTicketing()
			_, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, tt.input)
			de := apperrors.ToDomainError(err)
			if de == nil || de.Code != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			missing := de.Details["missing"].([]string)
			if len(missing) != len(tt.want) {
				t.Errorf("missing = %v, want %v", missing, tt.want)
			}
			if api.createdCustomers != 0 || len(api.tickets) != 0 {
				t.Error("validation failure must not touch the ticketing system")
			}
		})
	}
}

func TestReconcileRelinksExistingCustomer(t *testing.T) {
	api := newFakeTicketing()
	api.customers = []domain.Customer{{ID: 7, Email: "old@example.com", Firstname: "Old", OrganizationID: intPtr(5)}}

	res, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
		CustomerEmail: "old@example.com",
		Organization:  "New Corp",
		TicketTitle:   "Move",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Customer.OrganizationID == nil || *res.Customer.OrganizationID != res.Organization.ID {
		t.Fatalf("customer not relinked: %+v", res.Customer)
	}
}

func TestReconcileRelinkFailureIsNotFatal(t *testing.T) {
	api := newFakeTicketing()
	api.customers = []domain.Customer{{ID: 7, Email: "old@example.com", OrganizationID: intPtr(5)}}
	api.relinkErr = apperrors.NewRemoteAPIError("update customer", 403, "forbidden", nil)

	res, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
		CustomerEmail: "old@example.com",
		Organization:  "New Corp",
		TicketTitle:   "Move",
	})
	if err != nil {
		t.Fatal(err)
	}
	if *res.Customer.OrganizationID != 5 {
		t.Errorf("previous customer record must be kept, got org %v", *res.Customer.OrganizationID)
	}
	if res.Ticket == nil {
		t.Fatal("ticket must still be created")
	}
}

func TestReconcileArticleVariants(t *testing.T) {
	api := newFakeTicketing()
	svc := newReconciler(nil)

	res, err := svc.ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
		CustomerEmail: "c@example.com",
		TicketTitle:   "Email",
		OriginalText:  "raw customer text",
		CreateAsEmail: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	article := api.articles[res.Ticket.ID][0]
	if article.Type != domain.ArticleTypeEmail || article.Internal || article.Body != "raw customer text" {
		t.Errorf("unexpected email article %+v", article)
	}
}

func TestReconcileGroupFallbacks(t *testing.T) {
	t.Run("unknown group uses first active", func(t *testing.T) {
		api := newFakeTicketing()
		api.groups = []domain.Group{{ID: 3, Name: "Archiv", Active: false}, {ID: 4, Name: "Technik", Active: true}}
		res, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
			CustomerEmail: "g@example.com", TicketTitle: "x", Group: "Nonexistent",
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Ticket.GroupID != 4 {
			t.Errorf("group = %d, want 4", res.Ticket.GroupID)
		}
	})
	t.Run("no groups uses fallback id", func(t *testing.T) {
		api := newFakeTicketing()
		res, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
			CustomerEmail: "g@example.com", TicketTitle: "x",
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Ticket.GroupID != ticketing.FallbackGroupID {
			t.Errorf("group = %d, want %d", res.Ticket.GroupID, ticketing.FallbackGroupID)
		}
	})
}

func TestReconcileTicketFailureKeepsCustomer(t *testing.T) {
	api := newFakeTicketing()
	api.createTicketErr = apperrors.NewRemoteAPIError("create ticket", 422, `{"error":"group invalid"}`, nil)

	_, err := newReconciler(nil).ReconcileAndCreateTicket(context.Background(), api, ReconcileInput{
		CustomerEmail: "keep@example.com", TicketTitle: "x",
	})
	if !apperrors.HasCode(err, apperrors.CodeRemoteAPI) {
		t.Fatalf("expected remote api error, got %v", err)
	}
	if api.createdCustomers != 1 {
		t.Errorf("customer must remain after ticket failure")
	}
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, string) (locking.Unlock, error) { return nil, l.err }

func TestReconcileLockFailures(t *testing.T) {
	input := ReconcileInput{CustomerEmail: "Busy@example.com", TicketTitle: "x"}

	t.Run("contended key is busy", func(t *testing.T) {
		locker := locking.NewMemoryLocker(10 * time.Millisecond)
		unlock, err := locker.Lock(context.Background(), locking.Key("customer", "busy@example.com"))
		if err != nil {
			t.Fatal(err)
		}
		defer unlock()

		svc := NewReconciliationService(ReconciliationDependencies{Locker: locker, Logger: zap.NewNop()})
		_, err = svc.ReconcileAndCreateTicket(context.Background(), newFakeTicketing(), input)
		de := apperrors.ToDomainError(err)
		if de == nil || de.Code != apperrors.CodeBusy || de.HTTPStatus != 409 {
			t.Fatalf("expected busy error, got %v", err)
		}
		if keys, _ := de.Details["keys"].([]string); len(keys) != 1 || keys[0] != "customer:busy@example.com" {
			t.Errorf("details = %v", de.Details)
		}
	})

	t.Run("expired request is a timeout", func(t *testing.T) {
		locker := locking.NewMemoryLocker(0)
		unlock, err := locker.Lock(context.Background(), locking.Key("customer", "busy@example.com"))
		if err != nil {
			t.Fatal(err)
		}
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		svc := NewReconciliationService(ReconciliationDependencies{Locker: locker, Logger: zap.NewNop()})
		_, err = svc.ReconcileAndCreateTicket(ctx, newFakeTicketing(), input)
		if !apperrors.HasCode(err, apperrors.CodeRemoteTimeout) {
			t.Fatalf("expected remote timeout, got %v", err)
		}
	})

	t.Run("lock backend failure keeps the detail", func(t *testing.T) {
		api := newFakeTicketing()
		svc := NewReconciliationService(ReconciliationDependencies{
			Locker: failingLocker{err: errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")},
			Logger: zap.NewNop(),
		})
		_, err := svc.ReconcileAndCreateTicket(context.Background(), api, input)
		de := apperrors.ToDomainError(err)
		if de == nil || de.Code != apperrors.CodeRemoteAPI || de.HTTPStatus != 502 {
			t.Fatalf("expected remote api error, got %v", err)
		}
		if de.Details["operation"] != "acquire lock" || de.Details["upstream_detail"] != "dial tcp 127.0.0.1:6379: connect: connection refused" {
			t.Errorf("details = %v", de.Details)
		}
		if api.createdCustomers != 0 || len(api.tickets) != 0 {
			t.Error("nothing may be created without the lock")
		}
	})
}
