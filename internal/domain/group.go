package domain

import "encoding/json"

// Group is a ticket queue or team.
type Group struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// UnmarshalJSON treats a missing active flag as active.
func (g *Group) UnmarshalJSON(data []byte) error {
	type rawGroup Group
	raw := rawGroup{Active: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Group(raw)
	return nil
}

// Role is a ticketing-system permission role.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
