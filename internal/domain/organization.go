package domain

// Organization groups customers of the same company.
type Organization struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
