package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second")
		if e.TicketID != 7 {
			t.Errorf("ticket id = %d", e.TicketID)
		}
		return nil
	})
	d.Subscribe(EventReplyPosted, func(context.Context, Event) error {
		t.Error("handler for other type must not run")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 7})
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
}

func TestStaffActor(t *testing.T) {
	if a := StaffActor(""); a.Type != ActorAnonymous {
		t.Errorf("empty username must be anonymous, got %+v", a)
	}
	if a := StaffActor("maria"); a.Type != ActorStaff || a.Username != "maria" {
		t.Errorf("unexpected actor %+v", a)
	}
}

func TestDispatcherStampsEvents(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(EventCompletionUsed, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventCompletionUsed}); err != nil {
		t.Fatal(err)
	}
	if err := d.Publish(context.Background(), Event{Type: EventCompletionUsed, ID: "fixed"}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d", len(got))
	}
	if got[0].ID == "" || got[0].Timestamp.IsZero() {
		t.Errorf("first event not stamped: %+v", got[0])
	}
	if got[1].ID != "fixed" {
		t.Errorf("explicit id overwritten: %q", got[1].ID)
	}
}
