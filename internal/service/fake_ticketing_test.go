package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// fakeTicketing is an in-memory ticketing system. It yields inside lookups so
// concurrent callers interleave the way they would against a remote API.
type fakeTicketing struct {
	mu sync.Mutex

	customers []domain.Customer
	orgs      []domain.Organization
	groups    []domain.Group
	tickets   []domain.Ticket
	articles  map[int][]domain.Article
	nextID    int

	createdCustomers int
	createdOrgs      int
	relinkErr        error
	createTicketErr  error
	groupsErr        error
	lastTicket       domain.TicketCreate
	lastArticle      domain.ArticleCreate
}

func newFakeTicketing() *fakeTicketing {
	return &fakeTicketing{articles: map[int][]domain.Article{}, nextID: 100}
}

func (f *fakeTicketing) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeTicketing) Connection() ticketing.Connection {
	return ticketing.Connection{BaseURL: "https://zammad.example.com", Token: "t"}
}

func (f *fakeTicketing) FindCustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if strings.EqualFold(c.Email, email) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeTicketing) SearchCustomers(context.Context, string, int) ([]domain.CustomerSummary, error) {
	return nil, nil
}

func (f *fakeTicketing) CreateCustomer(_ context.Context, email, name string, orgID *int) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	first, last := ticketing.SplitName(name, email)
	c := domain.Customer{ID: f.id(), Email: email, Firstname: first, Lastname: last, OrganizationID: orgID}
	f.customers = append(f.customers, c)
	f.createdCustomers++
	return &c, nil
}

func (f *fakeTicketing) UpdateCustomerOrganization(_ context.Context, customerID, orgID int) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.relinkErr != nil {
		return nil, f.relinkErr
	}
	for i := range f.customers {
		if f.customers[i].ID == customerID {
			f.customers[i].OrganizationID = &orgID
			c := f.customers[i]
			return &c, nil
		}
	}
	return nil, apperrors.NewRemoteAPIError("update customer", 404, "not found", nil)
}

func (f *fakeTicketing) FindOrganizationByName(_ context.Context, name string) (*domain.Organization, error) {
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orgs {
		if strings.EqualFold(o.Name, name) {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeTicketing) CreateOrganization(_ context.Context, name string) (*domain.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := domain.Organization{ID: f.id(), Name: name, Active: true}
	f.orgs = append(f.orgs, o)
	f.createdOrgs++
	return &o, nil
}

func (f *fakeTicketing) ListGroups(context.Context) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return append([]domain.Group(nil), f.groups...), nil
}

func (f *fakeTicketing) ResolveGroupID(_ context.Context, nameOrID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := ticketing.PickGroup(f.groups, nameOrID)
	return id, nil
}

func (f *fakeTicketing) CreateTicket(_ context.Context, in domain.TicketCreate) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTicket = in
	if f.createTicketErr != nil {
		return nil, f.createTicketErr
	}
	t := domain.Ticket{ID: f.id(), Title: in.Title, GroupID: in.GroupID, CustomerID: in.CustomerID, CreatedAt: time.Now()}
	t.Number = strconv.Itoa(20000 + t.ID)
	for _, c := range f.customers {
		if c.ID == in.CustomerID {
			t.OrganizationID = c.OrganizationID
		}
	}
	f.tickets = append(f.tickets, t)
	f.articles[t.ID] = []domain.Article{{
		ID:       f.id(),
		TicketID: t.ID,
		Subject:  in.Article.Subject,
		Body:     in.Article.Body,
		Type:     in.Article.Type,
		Internal: in.Article.InternalOrDefault(),
	}}
	return &t, nil
}

func (f *fakeTicketing) GetTicket(_ context.Context, id int) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, apperrors.NewRemoteAPIError("get ticket", 404, `{"error":"Not Found"}`, nil)
}

func (f *fakeTicketing) GetTicketArticles(_ context.Context, id int) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Article(nil), f.articles[id]...), nil
}

func (f *fakeTicketing) AddArticle(_ context.Context, ticketID int, in domain.ArticleCreate) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastArticle = in
	a := domain.Article{ID: f.id(), TicketID: ticketID, Body: in.Body, Type: in.Type, Internal: in.InternalOrDefault()}
	f.articles[ticketID] = append(f.articles[ticketID], a)
	return &a, nil
}

func (f *fakeTicketing) SearchTicketsByCustomer(_ context.Context, customerID, limit int) ([]domain.Ticket, error) {
	return f.search(func(t domain.Ticket) bool { return t.CustomerID == customerID }, limit), nil
}

func (f *fakeTicketing) SearchTicketsByOrganization(_ context.Context, orgID, limit int) ([]domain.Ticket, error) {
	return f.search(func(t domain.Ticket) bool { return t.OrganizationID != nil && *t.OrganizationID == orgID }, limit), nil
}

func (f *fakeTicketing) search(match func(domain.Ticket) bool, limit int) []domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for i := len(f.tickets) - 1; i >= 0; i-- {
		if match(f.tickets[i]) {
			out = append(out, f.tickets[i])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeTicketing) GetTicketsWithArticles(ctx context.Context, tickets []domain.Ticket) []domain.Ticket {
	return ticketing.ExpandTickets(ctx, f, tickets, zap.NewNop())
}

var errUpstream = errors.New("upstream unavailable")

func intPtr(v int) *int { return &v }
