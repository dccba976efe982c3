package domain

import (
	"encoding/json"
	"strings"
)

// Customer is a ticketing-system user acting as requester.
type Customer struct {
	ID             int       `json:"id"`
	Firstname      string    `json:"firstname"`
	Lastname       string    `json:"lastname"`
	Email          string    `json:"email"`
	OrganizationID *int      `json:"organization_id"`
	Organization   string    `json:"organization,omitempty"`
	Roles          RoleNames `json:"roles,omitempty"`
}

// FullName joins first and last name, falling back to the email address.
func (c *Customer) FullName() string {
	name := strings.TrimSpace(c.Firstname + " " + c.Lastname)
	if name == "" {
		return c.Email
	}
	return name
}

// HasRole reports whether the user carries the named role.
func (c *Customer) HasRole(name string) bool {
	for _, role := range c.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// CustomerSummary is the search-result projection of a customer.
type CustomerSummary struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Fullname       string `json:"fullname"`
	Organization   string `json:"organization,omitempty"`
	OrganizationID *int   `json:"organization_id"`
}

// RoleNames decodes role lists given either as names or as {"name": ...} objects.
type RoleNames []string

func (r *RoleNames) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*r = names
		return nil
	}
	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &objects); err != nil {
		return err
	}
	out := make(RoleNames, 0, len(objects))
	for _, obj := range objects {
		out = append(out, obj.Name)
	}
	*r = out
	return nil
}
