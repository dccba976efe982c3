package completion

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

const (
	defaultTicketTitle = "Neue Kundenanfrage"
	defaultGroup       = "Support"
	maxTitleRunes      = 80
)

var (
	emailPattern    = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	sentenceEnd     = regexp.MustCompile(`[.!?]`)
	codeFenceMarker = regexp.MustCompile("```(?:json)?\\n?")

	// ErrUnparseable marks model output that was not a JSON object.
	ErrUnparseable = errors.New("model output is not a JSON object")
)

// Extraction is the result of recovering ticket fields from raw text.
type Extraction struct {
	Fields domain.ExtractedTicket
	// Usage is nil when no model was involved.
	Usage    *domain.CompletionUsage
	Model    string
	Fallback bool
}

// TicketFieldExtractor recovers ticket fields from free-form text.
type TicketFieldExtractor interface {
	Extract(ctx context.Context, text string, groups []string) (*Extraction, error)
}

// ModelExtractor asks a provider for the fields as JSON.
type ModelExtractor struct {
	Provider Provider
	Model    string
	Prompts  Prompts
}

// Extract prompts the model and parses its JSON answer.
func (m ModelExtractor) Extract(ctx context.Context, text string, groups []string) (*Extraction, error) {
	res, err := m.Provider.Complete(ctx, Request{
		System:      m.Prompts.ExtractionSystem(groups),
		Prompt:      text,
		Model:       m.Model,
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}
	fields, err := ParseExtraction(res.Text)
	if err != nil {
		return nil, &UnparseableOutputError{Usage: res.Usage, Model: res.Model, Err: err}
	}
	applyDefaults(&fields, text)
	usage := res.Usage
	return &Extraction{Fields: fields, Usage: &usage, Model: res.Model}, nil
}

// ParseExtraction decodes model output, tolerating markdown code fences.
func ParseExtraction(output string) (domain.ExtractedTicket, error) {
	cleaned := strings.TrimSpace(codeFenceMarker.ReplaceAllString(output, ""))
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}
	var fields domain.ExtractedTicket
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return fields, errors.Join(ErrUnparseable, err)
	}
	return fields, nil
}

// UnparseableOutputError keeps the usage of a call whose output could not be parsed.
type UnparseableOutputError struct {
	Usage domain.CompletionUsage
	Model string
	Err   error
}

func (e *UnparseableOutputError) Error() string { return e.Err.Error() }

func (e *UnparseableOutputError) Unwrap() error { return e.Err }

// RegexExtractor is the deterministic fallback: the first email address, the
// line before it as name, and the first sentence as title.
type RegexExtractor struct{}

// Extract never fails.
func (RegexExtractor) Extract(_ context.Context, text string, _ []string) (*Extraction, error) {
	return &Extraction{Fields: ExtractWithRegex(text), Fallback: true}, nil
}

// ExtractWithRegex applies the regex heuristics to text.
func ExtractWithRegex(text string) domain.ExtractedTicket {
	email := emailPattern.FindString(text)

	var name string
	if email != "" {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.Contains(line, email) {
				if i > 0 {
					name = strings.TrimSpace(lines[i-1])
				}
				break
			}
		}
	}

	title := strings.TrimSpace(sentenceEnd.Split(text, 2)[0])
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes-3]) + "..."
	}
	if title == "" {
		title = defaultTicketTitle
	}

	return domain.ExtractedTicket{
		CustomerName:   name,
		CustomerEmail:  email,
		TicketTitle:    title,
		TicketBody:     text,
		SuggestedGroup: defaultGroup,
	}
}

func applyDefaults(fields *domain.ExtractedTicket, text string) {
	if strings.TrimSpace(fields.TicketTitle) == "" {
		fields.TicketTitle = defaultTicketTitle
	}
	if strings.TrimSpace(fields.TicketBody) == "" {
		fields.TicketBody = text
	}
	if strings.TrimSpace(fields.SuggestedGroup) == "" {
		fields.SuggestedGroup = defaultGroup
	}
}

// FallbackExtractor tries Primary and degrades to Fallback on any error.
type FallbackExtractor struct {
	Primary  TicketFieldExtractor
	Fallback TicketFieldExtractor
	Logger   *zap.Logger
}

// Extract returns the primary result, or the fallback result when the primary fails.
func (f FallbackExtractor) Extract(ctx context.Context, text string, groups []string) (*Extraction, error) {
	var primaryErr error
	if f.Primary != nil {
		res, err := f.Primary.Extract(ctx, text, groups)
		if err == nil {
			return res, nil
		}
		primaryErr = err
		if f.Logger != nil {
			f.Logger.Warn("model extraction failed, using regex fallback", zap.Error(err))
		}
	}
	fallback := f.Fallback
	if fallback == nil {
		fallback = RegexExtractor{}
	}
	res, err := fallback.Extract(ctx, text, groups)
	if err != nil {
		return nil, err
	}
	var unparseable *UnparseableOutputError
	if errors.As(primaryErr, &unparseable) {
		usage := unparseable.Usage
		res.Usage = &usage
		res.Model = unparseable.Model
	}
	return res, nil
}
