package ticketing

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

func (c *Client) groups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := c.get(ctx, "list groups", "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListGroups returns active groups sorted by name.
func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	groups, err := c.groups(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if g.Active {
			active = append(active, g)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return strings.ToLower(active[i].Name) < strings.ToLower(active[j].Name)
	})
	return active, nil
}

// ResolveGroupID maps a group name or numeric id to a group id.
func (c *Client) ResolveGroupID(ctx context.Context, nameOrID string) (int, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if id, err := strconv.Atoi(nameOrID); err == nil && id > 0 {
		return id, nil
	}
	groups, err := c.groups(ctx)
	if err != nil {
		return 0, err
	}
	id, matched := PickGroup(groups, nameOrID)
	if !matched {
		c.logger.Info("group not found, using fallback", zap.String("group", nameOrID), zap.Int("group_id", id))
	}
	return id, nil
}

// PickGroup applies the group fallback chain: exact name (case-insensitive),
// then the first active group, then FallbackGroupID.
func PickGroup(groups []domain.Group, name string) (int, bool) {
	if name != "" {
		for _, g := range groups {
			if strings.EqualFold(g.Name, name) {
				return g.ID, true
			}
		}
	}
	for _, g := range groups {
		if g.Active {
			return g.ID, false
		}
	}
	return FallbackGroupID, false
}
