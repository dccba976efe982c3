package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

const testToken = "zammad-token"

// fakeZammad is a stateful stand-in for the ticketing REST API.
type fakeZammad struct {
	mu       sync.Mutex
	users    []domain.Customer
	orgs     []domain.Organization
	groups   []domain.Group
	tickets  []domain.Ticket
	articles map[int][]domain.Article
	nextID   int
	srv      *httptest.Server
}

func newFakeZammad(t *testing.T) *fakeZammad {
	t.Helper()
	f := &fakeZammad{
		articles: map[int][]domain.Article{},
		nextID:   1000,
		groups:   []domain.Group{{ID: 1, Name: "Users", Active: true}, {ID: 2, Name: "Support", Active: true}},
	}
	f.srv = httptest.NewServer(f.handler(t))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeZammad) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeZammad) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/search", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, f.users)
	})
	mux.HandleFunc("GET /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		for _, u := range f.users {
			if u.ID == id {
				respond(w, http.StatusOK, u)
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	mux.HandleFunc("POST /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		var u domain.Customer
		_ = json.NewDecoder(r.Body).Decode(&u)
		u.ID = f.id()
		f.users = append(f.users, u)
		respond(w, http.StatusCreated, u)
	})
	mux.HandleFunc("PUT /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		var body struct {
			OrganizationID int `json:"organization_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for i := range f.users {
			if f.users[i].ID == id {
				f.users[i].OrganizationID = &body.OrganizationID
				respond(w, http.StatusOK, f.users[i])
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	mux.HandleFunc("GET /api/v1/roles", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, []domain.Role{{ID: 2, Name: "Agent"}, {ID: 3, Name: "Customer"}})
	})
	mux.HandleFunc("GET /api/v1/organizations/search", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, f.orgs)
	})
	mux.HandleFunc("POST /api/v1/organizations", func(w http.ResponseWriter, r *http.Request) {
		var o domain.Organization
		_ = json.NewDecoder(r.Body).Decode(&o)
		o.ID = f.id()
		f.orgs = append(f.orgs, o)
		respond(w, http.StatusCreated, o)
	})
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, f.groups)
	})
	mux.HandleFunc("POST /api/v1/tickets", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title      string         `json:"title"`
			GroupID    int            `json:"group_id"`
			CustomerID int            `json:"customer_id"`
			Article    domain.Article `json:"article"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ticket := domain.Ticket{
			ID:         f.id(),
			Title:      body.Title,
			GroupID:    body.GroupID,
			CustomerID: body.CustomerID,
			State:      "new",
			CreatedAt:  time.Now().UTC(),
		}
		ticket.Number = strconv.Itoa(60000 + ticket.ID)
		for _, u := range f.users {
			if u.ID == body.CustomerID {
				ticket.OrganizationID = u.OrganizationID
			}
		}
		article := body.Article
		article.ID = f.id()
		article.TicketID = ticket.ID
		f.tickets = append(f.tickets, ticket)
		f.articles[ticket.ID] = append(f.articles[ticket.ID], article)
		respond(w, http.StatusCreated, ticket)
	})
	mux.HandleFunc("GET /api/v1/tickets/search", func(w http.ResponseWriter, r *http.Request) {
		field, value, _ := strings.Cut(r.URL.Query().Get("query"), ":")
		want, _ := strconv.Atoi(value)
		out := []domain.Ticket{}
		for _, ticket := range f.tickets {
			switch {
			case field == "customer_id" && ticket.CustomerID == want,
				field == "organization_id" && ticket.OrganizationID != nil && *ticket.OrganizationID == want:
				out = append(out, ticket)
			}
		}
		respond(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/v1/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		for _, ticket := range f.tickets {
			if ticket.ID == id {
				respond(w, http.StatusOK, ticket)
				return
			}
		}
		respond(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	mux.HandleFunc("GET /api/v1/ticket_articles/by_ticket/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		respond(w, http.StatusOK, f.articles[id])
	})
	mux.HandleFunc("POST /api/v1/ticket_articles", func(w http.ResponseWriter, r *http.Request) {
		var article domain.Article
		_ = json.NewDecoder(r.Body).Decode(&article)
		article.ID = f.id()
		f.articles[article.TicketID] = append(f.articles[article.TicketID], article)
		respond(w, http.StatusCreated, article)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("unexpected authorization header %q", got)
			respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication failed"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeZammad) addCustomer(email, first, last string, orgID *int) domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := domain.Customer{ID: f.id(), Email: email, Firstname: first, Lastname: last, OrganizationID: orgID}
	f.users = append(f.users, c)
	return c
}

func (f *fakeZammad) addTicket(customerID int, title string, created time.Time, bodies ...string) domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket := domain.Ticket{ID: f.id(), Title: title, CustomerID: customerID, State: "open", CreatedAt: created}
	ticket.Number = strconv.Itoa(60000 + ticket.ID)
	for _, u := range f.users {
		if u.ID == customerID {
			ticket.OrganizationID = u.OrganizationID
		}
	}
	f.tickets = append(f.tickets, ticket)
	for _, body := range bodies {
		f.articles[ticket.ID] = append(f.articles[ticket.ID], domain.Article{
			ID: f.id(), TicketID: ticket.ID, Body: body, Type: domain.ArticleTypeNote, From: "customer@example.com",
		})
	}
	return ticket
}

func (f *fakeZammad) customerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeEden answers chat calls with a scripted text, keyed by the requested provider.
type fakeEden struct {
	mu       sync.Mutex
	reply    string
	requests []map[string]any
	srv      *httptest.Server
}

func newFakeEden(t *testing.T, reply string) *fakeEden {
	t.Helper()
	e := &fakeEden{reply: reply}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text/chat" {
			respond(w, http.StatusNotFound, nil)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		e.mu.Lock()
		e.requests = append(e.requests, body)
		reply := e.reply
		e.mu.Unlock()

		provider, _ := body["providers"].(string)
		respond(w, http.StatusOK, map[string]any{provider: map[string]any{
			"status":         "success",
			"generated_text": reply,
			"cost":           0.0042,
			"usage":          map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		}})
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *fakeEden) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeZammad) addOrganization(name string) domain.Organization {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := domain.Organization{ID: f.id(), Name: name, Active: true}
	f.orgs = append(f.orgs, o)
	return o
}

func (e *fakeEden) request(i int) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests[i]
}
