package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/observability"
	"github.com/spec-kit/ticket-assistant/internal/persistence"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
)

const dependencyDisabled = "disabled"

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	tickets     *ticketing.Factory
	completions *completion.Router
	metrics     *observability.Metrics
}

// HealthDependencies bundles what the probes inspect. Postgres and Redis may be nil.
type HealthDependencies struct {
	ServiceName string
	Version     string
	Postgres    *persistence.Postgres
	Redis       *persistence.Redis
	Tickets     *ticketing.Factory
	Completions *completion.Router
	Metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{
		serviceName: deps.ServiceName,
		version:     deps.Version,
		postgres:    deps.Postgres,
		redis:       deps.Redis,
		tickets:     deps.Tickets,
		completions: deps.Completions,
		metrics:     deps.Metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the configured stores.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	pgReady := probe(ctx, depStatus, "postgres", h.postgres.Enabled(), h.postgres.Ping)
	redisReady := probe(ctx, depStatus, "redis", h.redis != nil, h.redis.Ping)
	ready := pgReady && redisReady

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// probe records one dependency. Unconfigured stores are optional and count as ready.
func probe(ctx context.Context, status fiber.Map, name string, configured bool, ping func(context.Context) error) bool {
	if !configured {
		status[name] = dependencyDisabled
		return true
	}
	if err := ping(ctx); err != nil {
		status[name] = err.Error()
		return false
	}
	status[name] = "ok"
	return true
}

// API handles GET /api/health. It reports which upstream APIs are configured
// for this caller, counting credential headers.
func (h *HealthHandler) API(c *fiber.Ctx) error {
	creds := CredentialsFrom(c)
	sel := h.completions.Normalize(completion.Selector{CloudAPIKey: creds.CloudAPIKey})
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":  "OK",
		"service": h.serviceName,
		"version": h.version,
		"apis": fiber.Map{
			"edenai": sel.CloudAPIKey != "",
			"zammad": h.tickets.Resolve(creds.TicketingURL, creds.TicketingToken).Configured(),
		},
		"metrics": h.metrics.Snapshot(),
	}})
}
