package document

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

// Supported mime types.
const (
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC      = "application/msword"
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeCSV      = "text/csv"

	// MaxUploadBytes is the largest document accepted.
	MaxUploadBytes = 10 << 20
)

var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".doc":  MimeDOC,
	".txt":  MimeText,
	".md":   MimeMarkdown,
	".csv":  MimeCSV,
}

// Stats summarizes extracted text.
type Stats struct {
	Characters int  `json:"characters"`
	Words      int  `json:"words"`
	Pages      *int `json:"pages,omitempty"`
}

// Extractor turns uploaded files into plain text.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor builds an extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract dispatches on the mime type. Generic binary uploads are typed by file extension.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType, filename string) (*domain.ExtractedDocument, error) {
	mediaType := NormalizeType(mimeType, filename)
	if len(data) > MaxUploadBytes {
		return nil, apperrors.NewValidationError("document exceeds upload limit", map[string]any{
			"limit_bytes": MaxUploadBytes,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Info("extracting document", zap.String("filename", filename), zap.String("mime_type", mediaType))

	doc := &domain.ExtractedDocument{Filename: filename}
	switch mediaType {
	case MimePDF:
		text, pages, err := extractPDF(data)
		if err != nil {
			return nil, apperrors.NewValidationError("PDF could not be read", map[string]any{"reason": err.Error()})
		}
		doc.Type, doc.Text, doc.PageCount = "PDF", text, &pages
		if strings.TrimSpace(text) == "" {
			doc.Warnings = append(doc.Warnings, "no text layer found; the PDF may be scanned")
		}
	case MimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return nil, apperrors.NewValidationError("Word document could not be read", map[string]any{"reason": err.Error()})
		}
		doc.Type, doc.Text = "Word", text
	case MimeDOC:
		doc.Type, doc.Text = "Word", extractLegacyDOC(data)
		doc.Warnings = append(doc.Warnings, "legacy .doc format: text recovered on a best-effort basis, formatting is lost")
	case MimeText, MimeMarkdown, MimeCSV:
		doc.Type, doc.Text = "Text", decodeText(data)
	default:
		return nil, apperrors.NewUnsupportedType(mediaType)
	}
	return doc, nil
}

// NormalizeType strips parameters from a mime type and falls back to the file extension
// when the client sent none or a generic one.
func NormalizeType(mimeType, filename string) string {
	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}
	if mediaType == "" {
		return "application/octet-stream"
	}
	return mediaType
}

// ComputeStats counts characters and words of a document.
func ComputeStats(doc *domain.ExtractedDocument) Stats {
	return Stats{
		Characters: utf8.RuneCountInString(doc.Text),
		Words:      len(strings.Fields(doc.Text)),
		Pages:      doc.PageCount,
	}
}

func decodeText(data []byte) string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(text, "�")
}
