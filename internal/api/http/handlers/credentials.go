package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Per-request credential headers. They override the configured defaults.
const (
	HeaderTicketingURL   = "X-Zammad-Url"
	HeaderTicketingToken = "X-Zammad-Token"
	HeaderCloudAPIKey    = "X-Eden-Ai-Key"
)

// Credentials are the caller-supplied connection settings of one request.
type Credentials struct {
	TicketingURL   string
	TicketingToken string
	CloudAPIKey    string
}

// CredentialsFrom reads the credential headers.
func CredentialsFrom(c *fiber.Ctx) Credentials {
	return Credentials{
		TicketingURL:   strings.TrimSpace(c.Get(HeaderTicketingURL)),
		TicketingToken: strings.TrimSpace(c.Get(HeaderTicketingToken)),
		CloudAPIKey:    strings.TrimSpace(c.Get(HeaderCloudAPIKey)),
	}
}
