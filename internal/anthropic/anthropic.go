package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lehigh-university-libraries/curator/internal/providers"
)

const defaultMaxTokens = 4096

// ErrMissingKey is returned when no API key is configured.
var ErrMissingKey = errors.New("ANTHROPIC_API_KEY not set")

// Anthropic is a provider for the Anthropic Messages API
type Anthropic struct {
	APIKey string
	// BaseURL overrides the API endpoint when set.
	BaseURL string
}

// New returns a new Anthropic provider
func New(apiKey string) *Anthropic {
	return &Anthropic{APIKey: apiKey}
}

// ExtractText sends one user message and returns the first text block of
// the reply.
func (a *Anthropic) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if a.APIKey == "" {
		return "", ErrMissingKey
	}

	opts := []option.RequestOption{option.WithAPIKey(a.APIKey)}
	if a.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(config.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(config.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(config.Prompt)),
		},
	}
	if config.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: config.System}}
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			slog.Debug("Anthropic response", "length", len(block.Text), "input_tokens", message.Usage.InputTokens, "output_tokens", message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
