package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/curator/internal/anthropic"
	"github.com/lehigh-university-libraries/curator/internal/gemini"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/ollama"
	"github.com/lehigh-university-libraries/curator/internal/openai"
	"github.com/lehigh-university-libraries/curator/internal/providers"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// DefaultMaxChars is the content budget, in characters, sent to the oracle.
const DefaultMaxChars = 4000

const (
	extractMaxTokens = 2000
	suggestMaxTokens = 1000
	malformedNote    = "The extraction response could not be parsed; an empty record was substituted"
)

var (
	// ErrOracle wraps failures of the underlying LLM call.
	ErrOracle = errors.New("extraction oracle failed")
	// ErrMalformedResponse is returned by ParseResponse when the oracle
	// output is not a usable record.
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// Settings carries the endpoints and credentials for every provider.
type Settings struct {
	OllamaURL    string
	OpenAIKey    string
	GeminiKey    string
	AnthropicKey string
}

// Provider names accepted by NewProvider.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// NewProvider builds the named provider.
func NewProvider(name string, s Settings) (providers.Provider, error) {
	switch name {
	case ProviderOllama:
		return ollama.New(s.OllamaURL), nil
	case ProviderOpenAI:
		return openai.New(s.OpenAIKey), nil
	case ProviderGemini:
		return gemini.New(s.GeminiKey), nil
	case ProviderAnthropic:
		return anthropic.New(s.AnthropicKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderOllama:
		return "mistral-small3.2:24b"
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	default:
		return ""
	}
}

// Options configure a Service.
type Options struct {
	Model       string
	Temperature float64
	MaxChars    int
}

// Service turns document text into candidate records through an LLM.
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
	maxChars    int
}

func NewService(p providers.Provider, opts Options) *Service {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	return &Service{
		provider:    p,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxChars:    opts.MaxChars,
	}
}

// Extract asks the oracle for a record describing text. Provider failures
// return the empty record and an error wrapping ErrOracle. Unusable responses
// are logged and yield the empty record with a nil error. Successful records
// carry quality metrics.
func (s *Service) Extract(ctx context.Context, text, fileName string) (models.Record, error) {
	content := Truncate(text, s.maxChars)

	raw, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		System:      systemPrompt,
		Prompt:      buildExtractionPrompt(content, fileName),
		MaxTokens:   extractMaxTokens,
		JSON:        true,
	})
	if err != nil {
		slog.Error("Metadata extraction failed", "file", fileName, "model", s.model, "error", err)
		return models.EmptyRecord(), fmt.Errorf("%w: %w", ErrOracle, err)
	}

	rec, err := ParseResponse(raw)
	if err != nil {
		slog.Warn("Substituting empty record for unusable extraction response", "file", fileName, "error", err)
		rec.ExtractionNotes = append(rec.ExtractionNotes, malformedNote)
		return rec, nil
	}

	rec = validation.Annotate(rec)
	slog.Info("Extracted metadata", "file", fileName, "model", s.model, "confidence", rec.ConfidenceScore)
	return rec, nil
}

// Suggest asks the oracle for improvement suggestions on rec, one per line.
func (s *Service) Suggest(ctx context.Context, rec models.Record) ([]string, error) {
	prompt, err := buildSuggestPrompt(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	raw, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		System:      suggestSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   suggestMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracle, err)
	}
	return parseSuggestions(raw), nil
}

// ParseResponse decodes raw oracle output, tolerating Markdown code fences
// and prose around the JSON object. On failure it returns the empty record
// and an error wrapping ErrMalformedResponse.
func ParseResponse(raw string) (models.Record, error) {
	cleaned := stripCodeFence(raw)

	rec, err := models.DecodeRecord([]byte(cleaned))
	if err == nil {
		return rec, nil
	}

	if obj, ok := extractJSONObject(cleaned); ok && obj != cleaned {
		if rec, retryErr := models.DecodeRecord([]byte(obj)); retryErr == nil {
			slog.Debug("Recovered JSON object from surrounding text")
			return rec, nil
		}
	}

	return models.EmptyRecord(), fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```JSON")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Truncate returns at most maxChars characters of text. A non-positive
// budget selects DefaultMaxChars.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}
