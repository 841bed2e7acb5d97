package providers

import (
	"context"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	// System carries standing instructions; providers without a system role
	// prepend it to Prompt.
	System    string
	Prompt    string
	MaxTokens int
	// JSON asks the provider to constrain output to a JSON object when it
	// supports that.
	JSON bool
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// CombinedPrompt joins the system and user prompts for single-prompt APIs.
func (c Config) CombinedPrompt() string {
	if c.System == "" {
		return c.Prompt
	}
	return c.System + "\n\n" + c.Prompt
}
