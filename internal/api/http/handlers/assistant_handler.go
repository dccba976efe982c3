package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/api/dto"
	"github.com/spec-kit/ticket-assistant/internal/completion"
	"github.com/spec-kit/ticket-assistant/internal/service"
	"github.com/spec-kit/ticket-assistant/internal/ticketing"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// AssistantHandler exposes the generative-text endpoints.
type AssistantHandler struct {
	assistant *service.AssistantService
	factory   *ticketing.Factory
	router    *completion.Router
	logger    *zap.Logger
}

// NewAssistantHandler constructs handler.
func NewAssistantHandler(assistant *service.AssistantService, factory *ticketing.Factory, router *completion.Router, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{assistant: assistant, factory: factory, router: router, logger: logger}
}

// AnalyzeText POST /api/analyze-text.
func (h *AssistantHandler) AnalyzeText(c *fiber.Ctx) error {
	var req dto.AnalyzeTextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	creds := CredentialsFrom(c)

	// groups are optional here; without ticketing credentials the defaults are offered
	var api service.TicketingAPI
	if conn := h.factory.Resolve(creds.TicketingURL, creds.TicketingToken); conn.Configured() {
		if client, err := h.factory.For(conn); err == nil {
			api = client
		}
	}

	analysis, err := h.assistant.AnalyzeText(c.UserContext(), api, req.Text, req.Selector(creds.CloudAPIKey))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalysisResponse{
		Extracted: analysis.Fields,
		CostInfo:  analysis.Usage,
		ModelUsed: analysis.Model,
		Fallback:  analysis.Fallback,
	}})
}

// GenerateResponse POST /api/generate-response.
func (h *AssistantHandler) GenerateResponse(c *fiber.Ctx) error {
	var req dto.GenerateResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.assistant.GenerateReply(c.UserContext(), req.TicketHistory, req.UserInstruction, req.Selector(CredentialsFrom(c).CloudAPIKey))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompletionResponse(reply)})
}

// Chat POST /api/chat.
func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	answer, err := h.assistant.Chat(c.UserContext(), req.Message, req.ChatHistory, req.Selector(CredentialsFrom(c).CloudAPIKey))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompletionResponse(answer)})
}

// LocalModels POST /api/local-models lists the models of a self-hosted endpoint.
func (h *AssistantHandler) LocalModels(c *fiber.Ctx) error {
	var req dto.LocalModelsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.APIURL) == "" || strings.TrimSpace(req.APIKey) == "" {
		return apperrors.NewValidationError("apiUrl and apiKey required", nil)
	}
	models, err := h.router.SelfHosted(completion.LocalConfig{URL: req.APIURL, APIKey: req.APIKey}).ListModels(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"models": models}})
}

// Models GET /api/models lists the selectable cloud models.
func (h *AssistantHandler) Models(c *fiber.Ctx) error {
	catalog := h.router.Catalog()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"default": catalog.Default,
		"models":  catalog.Models,
	}})
}
