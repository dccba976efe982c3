package ticketing

import (
	"crypto/tls"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/config"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// Connection identifies one ticketing instance and the token used to call it.
type Connection struct {
	BaseURL string
	Token   string
}

// Configured reports whether both URL and token are present.
func (c Connection) Configured() bool {
	return c.BaseURL != "" && c.Token != ""
}

// TicketURL returns the agent UI link for a ticket.
func (c Connection) TicketURL(ticketID int) string {
	return c.BaseURL + "/#ticket/zoom/" + strconv.Itoa(ticketID)
}

// Factory builds clients that share one HTTP transport.
type Factory struct {
	cfg    config.TicketingConfig
	http   *http.Client
	logger *zap.Logger
}

// NewFactory prepares the shared HTTP client. Internal instances often run with
// self-signed or expired certificates, hence the configurable verification.
func NewFactory(cfg config.TicketingConfig, logger *zap.Logger) *Factory {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec
	return &Factory{
		cfg:    cfg,
		http:   &http.Client{Transport: transport, Timeout: cfg.Timeout()},
		logger: logger,
	}
}

// Resolve merges per-request overrides with the configured defaults. The
// configured token only ever travels to the configured URL: a request naming
// another instance must bring its own token, otherwise the connection stays
// unconfigured and For rejects it.
func (f *Factory) Resolve(baseURL, token string) Connection {
	conn := Connection{BaseURL: f.cfg.URL, Token: f.cfg.Token}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" && baseURL != conn.BaseURL {
		conn = Connection{BaseURL: baseURL}
	}
	if token = strings.TrimSpace(token); token != "" {
		conn.Token = token
	}
	return conn
}

// For returns a client bound to the connection.
func (f *Factory) For(conn Connection) (*Client, error) {
	if !conn.Configured() {
		return nil, apperrors.NewValidationError("ticketing API not configured", map[string]any{
			"missing": missingFields(conn),
		})
	}
	return &Client{
		conn:           conn,
		http:           f.http,
		supportAddress: f.cfg.SupportAddress,
		logger:         f.logger.With(zap.String("ticketing_url", conn.BaseURL)),
	}, nil
}

func missingFields(conn Connection) []string {
	var missing []string
	if conn.BaseURL == "" {
		missing = append(missing, "url")
	}
	if conn.Token == "" {
		missing = append(missing, "token")
	}
	return missing
}
