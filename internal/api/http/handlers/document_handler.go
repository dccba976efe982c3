package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-assistant/internal/api/dto"
	"github.com/spec-kit/ticket-assistant/internal/document"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

const documentField = "document"

// DocumentHandler turns uploaded files into plain text.
type DocumentHandler struct {
	extractor *document.Extractor
}

// NewDocumentHandler constructs handler.
func NewDocumentHandler(extractor *document.Extractor) *DocumentHandler {
	return &DocumentHandler{extractor: extractor}
}

// Upload POST /api/upload-document (multipart field "document").
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile(documentField)
	if err != nil {
		return apperrors.NewValidationError("no document uploaded", map[string]any{"field": documentField})
	}
	if header.Size > document.MaxUploadBytes {
		return apperrors.NewValidationError("document too large", map[string]any{
			"limit_bytes": document.MaxUploadBytes,
			"size_bytes":  header.Size,
		})
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, document.MaxUploadBytes+1))
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	doc, err := h.extractor.Extract(c.UserContext(), data, header.Header.Get(fiber.HeaderContentType), header.Filename)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDocumentResponse(doc)})
}
