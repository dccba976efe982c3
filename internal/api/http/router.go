package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assistant/internal/api/http/handlers"
	"github.com/spec-kit/ticket-assistant/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Ticketing      *handlers.TicketingHandler
	Assistant      *handlers.AssistantHandler
	Documents      *handlers.DocumentHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Get("/health", cfg.Health.API)
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/groups", cfg.Ticketing.Groups)
	protected.Get("/search-customers", cfg.Ticketing.SearchCustomers)
	protected.Post("/check-customer", cfg.Ticketing.CheckCustomer)
	protected.Post("/check-organization", cfg.Ticketing.CheckOrganization)
	protected.Post("/create-ticket", cfg.Ticketing.CreateTicket)
	protected.Post("/customer-tickets", cfg.Ticketing.CustomerTickets)
	protected.Post("/organization-tickets", cfg.Ticketing.OrganizationTickets)
	protected.Get("/ticket/:ticketId", cfg.Ticketing.TicketDetail)
	protected.Post("/ticket/:ticketId/reply", cfg.Ticketing.Reply)

	protected.Get("/models", cfg.Assistant.Models)
	protected.Post("/analyze-text", cfg.Assistant.AnalyzeText)
	protected.Post("/generate-response", cfg.Assistant.GenerateResponse)
	protected.Post("/chat", cfg.Assistant.Chat)
	protected.Post("/local-models", cfg.Assistant.LocalModels)
	protected.Post("/upload-document", cfg.Documents.Upload)

	protected.Get("/audit/tickets", cfg.Audit.Tickets)
	protected.Get("/usage", cfg.Audit.Usage)
}
