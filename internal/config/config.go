package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/curator/internal/extraction"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

const defaultConfigPath = "curator.yaml"

type Config struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxChars    int     `yaml:"max_chars"`
	Schema      string  `yaml:"schema"`

	DBPath                string `yaml:"db_path"`
	Port                  string `yaml:"port"`
	Concurrency           int    `yaml:"concurrency"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`

	OllamaURL       string `yaml:"ollama_url"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. An empty path falls back to
// CURATOR_CONFIG and then to ./curator.yaml; only an explicitly named file
// must exist.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CURATOR_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing %s: %w", path, err)
		}
		slog.Debug("Loaded config", "path", path)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("error reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envOverride(&c.Provider, "CURATOR_PROVIDER")
	envOverride(&c.Model, "CURATOR_MODEL")
	envOverride(&c.Schema, "CURATOR_SCHEMA")
	envOverride(&c.DBPath, "CURATOR_DB_PATH")
	envOverride(&c.Port, "CURATOR_PORT")
	envOverride(&c.OllamaURL, "OLLAMA_URL")
	envOverride(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&c.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	if err := envOverrideFloat(&c.Temperature, "CURATOR_TEMPERATURE"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.MaxChars, "CURATOR_MAX_CHARS"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.Concurrency, "CURATOR_CONCURRENCY"); err != nil {
		return err
	}
	return envOverrideInt(&c.RequestTimeoutSeconds, "CURATOR_REQUEST_TIMEOUT_SECONDS")
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = extraction.ProviderOllama
	}
	if c.Model == "" {
		c.Model = extraction.DefaultModel(c.Provider)
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxChars == 0 {
		c.MaxChars = extraction.DefaultMaxChars
	}
	if c.Schema == "" {
		c.Schema = string(schema.DublinCore)
	}
	if c.DBPath == "" {
		c.DBPath = "./curator.db"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 120
	}
	if c.OllamaURL == "" {
		c.OllamaURL = os.Getenv("OLLAMA_HOST")
	}
}

// Validate checks value ranges. Provider credentials are checked separately
// by RequireProvider because most commands never call the oracle.
func (c Config) Validate() error {
	if _, err := extraction.NewProvider(c.Provider, extraction.Settings{}); err != nil {
		return fmt.Errorf("invalid provider %q (must be ollama, openai, gemini or anthropic)", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxChars < 1 {
		return fmt.Errorf("max_chars must be positive, got %d", c.MaxChars)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if _, err := schema.ParseType(c.Schema); err != nil {
		return err
	}
	return nil
}

// RequireProvider reports a missing credential for the configured provider.
func (c Config) RequireProvider() error {
	var key, name string
	switch c.Provider {
	case extraction.ProviderOpenAI:
		key, name = c.OpenAIAPIKey, "openai_api_key (OPENAI_API_KEY)"
	case extraction.ProviderGemini:
		key, name = c.GeminiAPIKey, "gemini_api_key (GEMINI_API_KEY)"
	case extraction.ProviderAnthropic:
		key, name = c.AnthropicAPIKey, "anthropic_api_key (ANTHROPIC_API_KEY)"
	default:
		return nil
	}
	if key == "" {
		return fmt.Errorf("provider %s requires %s", c.Provider, name)
	}
	return nil
}

// ProviderSettings returns the credentials used to build providers.
func (c Config) ProviderSettings() extraction.Settings {
	return extraction.Settings{
		OllamaURL:    c.OllamaURL,
		OpenAIKey:    c.OpenAIAPIKey,
		GeminiKey:    c.GeminiAPIKey,
		AnthropicKey: c.AnthropicAPIKey,
	}
}

// SchemaType returns the configured default schema.
func (c Config) SchemaType() schema.Type {
	t, err := schema.ParseType(c.Schema)
	if err != nil {
		return schema.DublinCore
	}
	return t
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envOverrideFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = f
	return nil
}
