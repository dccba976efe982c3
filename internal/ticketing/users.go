package ticketing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// FindCustomerByEmail returns the user whose email matches case-insensitively, or nil.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var users []domain.Customer
	if err := c.get(ctx, "search customer", "/users/search", url.Values{"query": {email}}, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email != "" && strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// SearchCustomers runs a free-text user search and drops staff accounts.
func (c *Client) SearchCustomers(ctx context.Context, term string, limit int) ([]domain.CustomerSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query := url.Values{
		"query":  {term},
		"limit":  {strconv.Itoa(limit)},
		"expand": {"true"},
	}
	var users []domain.Customer
	if err := c.get(ctx, "search customers", "/users/search", query, &users); err != nil {
		return nil, err
	}

	result := make([]domain.CustomerSummary, 0, len(users))
	for i := range users {
		user := &users[i]
		if user.HasRole("Admin") || user.HasRole("Agent") {
			continue
		}
		result = append(result, domain.CustomerSummary{
			ID:             user.ID,
			Email:          user.Email,
			Firstname:      user.Firstname,
			Lastname:       user.Lastname,
			Fullname:       strings.TrimSpace(user.Firstname + " " + user.Lastname),
			Organization:   user.Organization,
			OrganizationID: user.OrganizationID,
		})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// GetCustomer loads one user by id.
func (c *Client) GetCustomer(ctx context.Context, id int) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.get(ctx, "load customer", fmt.Sprintf("/users/%d", id), nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

type createCustomerRequest struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email"`
	OrganizationID *int   `json:"organization_id"`
	RoleIDs        []int  `json:"role_ids"`
}

// CreateCustomer creates a user with the customer role. The display name is split
// on whitespace; without a name the local part of the email becomes the first name.
func (c *Client) CreateCustomer(ctx context.Context, email, name string, organizationID *int) (*domain.Customer, error) {
	roleID, err := c.customerRoleID(ctx)
	if err != nil {
		return nil, err
	}

	firstname, lastname := SplitName(name, email)
	req := createCustomerRequest{
		Firstname:      firstname,
		Lastname:       lastname,
		Email:          email,
		OrganizationID: organizationID,
		RoleIDs:        []int{roleID},
	}
	var customer domain.Customer
	if err := c.post(ctx, "create customer", "/users", req, &customer); err != nil {
		return nil, err
	}
	c.logger.Info("customer created", zap.Int("customer_id", customer.ID), zap.Int("role_id", roleID))
	return &customer, nil
}

// UpdateCustomerOrganization relinks a user to another organization.
func (c *Client) UpdateCustomerOrganization(ctx context.Context, customerID, organizationID int) (*domain.Customer, error) {
	body := map[string]any{"organization_id": organizationID}
	var customer domain.Customer
	if err := c.put(ctx, "update customer organization", fmt.Sprintf("/users/%d", customerID), body, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) customerRoleID(ctx context.Context) (int, error) {
	var roles []domain.Role
	if err := c.get(ctx, "list roles", "/roles", nil, &roles); err != nil {
		return 0, err
	}
	if role, ok := MatchCustomerRole(roles); ok {
		return role.ID, nil
	}
	c.logger.Warn("customer role not found, using fallback", zap.Int("role_id", FallbackCustomerRoleID))
	return FallbackCustomerRoleID, nil
}

// MatchCustomerRole picks the first role named Customer or Kunde, or containing either word.
func MatchCustomerRole(roles []domain.Role) (domain.Role, bool) {
	for _, role := range roles {
		lower := strings.ToLower(role.Name)
		if role.Name == "Customer" || role.Name == "Kunde" ||
			strings.Contains(lower, "customer") || strings.Contains(lower, "kunde") {
			return role, true
		}
	}
	return domain.Role{}, false
}

// SplitName returns first and last name for a new user.
func SplitName(name, email string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		local, _, _ := strings.Cut(email, "@")
		return local, ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
