package ticketing

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// FindOrganizationByName returns the organization whose name matches case-insensitively, or nil.
func (c *Client) FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error) {
	var orgs []domain.Organization
	if err := c.get(ctx, "search organization", "/organizations/search", url.Values{"query": {name}}, &orgs); err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].Name != "" && strings.EqualFold(orgs[i].Name, name) {
			return &orgs[i], nil
		}
	}
	return nil, nil
}

// CreateOrganization creates an active organization.
func (c *Client) CreateOrganization(ctx context.Context, name string) (*domain.Organization, error) {
	body := map[string]any{"name": name, "active": true}
	var org domain.Organization
	if err := c.post(ctx, "create organization", "/organizations", body, &org); err != nil {
		return nil, err
	}
	c.logger.Info("organization created", zap.Int("organization_id", org.ID))
	return &org, nil
}
