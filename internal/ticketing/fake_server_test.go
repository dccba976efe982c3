package ticketing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/config"
	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// fakeZammad is an in-memory stand-in for the ticketing REST API.
type fakeZammad struct {
	mu            sync.Mutex
	users         []map[string]any
	orgs          []domain.Organization
	groups        []map[string]any
	roles         []domain.Role
	tickets       map[int]domain.Ticket
	articles      map[int][]domain.Article
	failTickets   map[int]bool
	createdUsers  []map[string]any
	createdTicket map[string]any
	createdArt    map[string]any
	searchBody    string
	lastQuery     string
	delay         time.Duration
}

func newFakeZammad() *fakeZammad {
	return &fakeZammad{
		tickets:     map[int]domain.Ticket{},
		articles:    map[int][]domain.Article{},
		failTickets: map[int]bool{},
		roles:       []domain.Role{{ID: 1, Name: "Admin"}, {ID: 2, Name: "Agent"}, {ID: 7, Name: "Customer"}},
	}
}

func (f *fakeZammad) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastQuery = r.URL.RawQuery
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		writeJSON(w, http.StatusOK, f.users)
	})
	mux.HandleFunc("GET /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		for _, u := range f.users {
			if int(u["id"].(float64)) == id {
				writeJSON(w, http.StatusOK, u)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	mux.HandleFunc("POST /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.createdUsers = append(f.createdUsers, body)
		body["id"] = float64(100 + len(f.createdUsers))
		f.users = append(f.users, body)
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("PUT /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, u := range f.users {
			if int(u["id"].(float64)) == id {
				u["organization_id"] = body["organization_id"]
				writeJSON(w, http.StatusOK, u)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	mux.HandleFunc("GET /api/v1/roles", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.roles)
	})
	mux.HandleFunc("GET /api/v1/organizations/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.orgs)
	})
	mux.HandleFunc("POST /api/v1/organizations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body domain.Organization
		_ = json.NewDecoder(r.Body).Decode(&body)
		body.ID = 500 + len(f.orgs)
		f.orgs = append(f.orgs, body)
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.groups)
	})
	mux.HandleFunc("POST /api/v1/tickets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if title, _ := body["title"].(string); title == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title missing"})
			return
		}
		f.createdTicket = body
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 42, "number": "31042", "title": body["title"],
			"group_id": body["group_id"], "customer_id": body["customer_id"],
		})
	})
	mux.HandleFunc("GET /api/v1/tickets/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.searchBody))
	})
	mux.HandleFunc("GET /api/v1/tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		if f.failTickets[id] {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		ticket, ok := f.tickets[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		ticket.State = "open"
		writeJSON(w, http.StatusOK, ticket)
	})
	mux.HandleFunc("GET /api/v1/ticket_articles/by_ticket/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		writeJSON(w, http.StatusOK, f.articles[id])
	})
	mux.HandleFunc("POST /api/v1/ticket_articles", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.createdArt = body
		body["id"] = 900
		writeJSON(w, http.StatusCreated, body)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeZammad) addUser(id int, email, first, last string, orgID *int, roles ...string) {
	user := map[string]any{"id": float64(id), "email": email, "firstname": first, "lastname": last}
	if orgID != nil {
		user["organization_id"] = float64(*orgID)
	}
	if len(roles) > 0 {
		user["roles"] = roles
	}
	f.users = append(f.users, user)
}

func (f *fakeZammad) addTicket(id int, created time.Time) {
	f.tickets[id] = domain.Ticket{ID: id, Number: fmt.Sprintf("T%d", id), Title: fmt.Sprintf("ticket %d", id), CreatedAt: created}
	f.articles[id] = []domain.Article{{ID: id * 10, TicketID: id, Body: "hello", Type: domain.ArticleTypeNote}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeZammad) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	factory := NewFactory(config.TicketingConfig{
		URL:            srv.URL,
		Token:          "test-token",
		TimeoutSeconds: 5,
		SupportAddress: "support@example.com",
	}, zap.NewNop())
	client, err := factory.For(factory.Resolve("", ""))
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	return client
}

func intPtr(v int) *int { return &v }

func queryContains(raw, fragment string) bool {
	return strings.Contains(raw, fragment)
}
