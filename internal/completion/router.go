package completion

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/config"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// Selector picks the provider for one call. Credentials travel with the
// request instead of living in process-wide state.
type Selector struct {
	Model       string
	CloudAPIKey string
	Local       *LocalConfig
}

// IsLocal reports whether the selector targets the self-hosted endpoint.
func (s Selector) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(s.Model), LocalSelector)
}

// Router resolves selectors to providers.
type Router struct {
	cfg     config.CompletionConfig
	catalog *Catalog
	http    *http.Client
	logger  *zap.Logger
}

// NewRouter builds a router with a shared HTTP client.
func NewRouter(cfg config.CompletionConfig, catalog *Catalog, logger *zap.Logger) *Router {
	return &Router{
		cfg:     cfg,
		catalog: catalog,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

// Catalog exposes the model catalog.
func (r *Router) Catalog() *Catalog {
	return r.catalog
}

// Normalize fills in the default model and the configured cloud key.
func (r *Router) Normalize(sel Selector) Selector {
	sel.Model = strings.ToLower(strings.TrimSpace(sel.Model))
	if sel.Model == "" {
		sel.Model = r.cfg.DefaultModel
	}
	if sel.Model == "" {
		sel.Model = r.catalog.Default
	}
	if strings.TrimSpace(sel.CloudAPIKey) == "" {
		sel.CloudAPIKey = r.cfg.EdenAPIKey
	}
	return sel
}

// Resolve returns the provider for a selector.
func (r *Router) Resolve(sel Selector) (Provider, Selector, error) {
	sel = r.Normalize(sel)
	if sel.IsLocal() {
		if !sel.Local.Valid() {
			return nil, sel, apperrors.NewValidationError("local model configuration incomplete", map[string]any{
				"required": []string{"url", "model"},
			})
		}
		return r.SelfHosted(*sel.Local), sel, nil
	}
	if sel.CloudAPIKey == "" {
		return nil, sel, apperrors.NewValidationError("Eden AI API key not configured", nil)
	}
	return NewEdenAI(r.cfg.EdenBaseURL, sel.CloudAPIKey, r.http, r.catalog), sel, nil
}

// SelfHosted builds a provider for a self-hosted endpoint.
func (r *Router) SelfHosted(cfg LocalConfig) *SelfHosted {
	return NewSelfHosted(cfg, r.http, r.catalog.Currency, r.logger)
}
