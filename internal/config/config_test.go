package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// isolate points the loader at an empty directory and clears every variable
// it reads so the host environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"CURATOR_CONFIG", "CURATOR_PROVIDER", "CURATOR_MODEL", "CURATOR_SCHEMA",
		"CURATOR_TEMPERATURE", "CURATOR_MAX_CHARS", "CURATOR_DB_PATH", "CURATOR_PORT",
		"CURATOR_CONCURRENCY", "CURATOR_REQUEST_TIMEOUT_SECONDS",
		"OLLAMA_URL", "OLLAMA_HOST", "OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Model != "mistral-small3.2:24b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %g, want 0.1", cfg.Temperature)
	}
	if cfg.MaxChars != 4000 {
		t.Errorf("MaxChars = %d, want 4000", cfg.MaxChars)
	}
	if cfg.DBPath != "./curator.db" || cfg.Port != "8080" || cfg.Concurrency != 4 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.SchemaType() != schema.DublinCore {
		t.Errorf("SchemaType = %s", cfg.SchemaType())
	}
	if cfg.RequestTimeout() != 2*time.Minute {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout())
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
provider: openai
temperature: 0.4
max_chars: 1200
schema: isad_g
db_path: /var/lib/curator/records.db
port: "9000"
concurrency: 2
openai_api_key: sk-yaml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != "openai" || cfg.Model != "gpt-4o" {
		t.Errorf("Provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.Temperature != 0.4 || cfg.MaxChars != 1200 || cfg.Concurrency != 2 {
		t.Errorf("Unexpected numeric settings %+v", cfg)
	}
	if cfg.SchemaType() != schema.ISADG {
		t.Errorf("SchemaType = %s", cfg.SchemaType())
	}
	if cfg.DBPath != "/var/lib/curator/records.db" || cfg.Port != "9000" {
		t.Errorf("Unexpected paths %+v", cfg)
	}
	if err := cfg.RequireProvider(); err != nil {
		t.Errorf("RequireProvider: %v", err)
	}
	if cfg.ProviderSettings().OpenAIKey != "sk-yaml" {
		t.Errorf("Expected the yaml key to reach provider settings")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "provider: openai\nopenai_api_key: sk-yaml\nconcurrency: 2\n")
	t.Setenv("CURATOR_CONFIG", path)
	t.Setenv("CURATOR_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("CURATOR_CONCURRENCY", "8")
	t.Setenv("CURATOR_TEMPERATURE", "0.25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != "anthropic" || cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("Provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.Concurrency != 8 || cfg.Temperature != 0.25 {
		t.Errorf("Expected env overrides, got %+v", cfg)
	}
	if cfg.OpenAIAPIKey != "sk-yaml" {
		t.Errorf("Expected untouched yaml value, got %q", cfg.OpenAIAPIKey)
	}
}

func TestOllamaHostFallback(t *testing.T) {
	isolate(t)
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OllamaURL != "http://gpu-box:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{"unknown provider", "provider: watson\n", nil, "invalid provider"},
		{"temperature range", "temperature: 3\n", nil, "temperature"},
		{"negative concurrency", "concurrency: -1\n", nil, "concurrency"},
		{"unknown schema", "schema: mods\n", nil, "unknown schema type"},
		{"bad yaml", "provider: [\n", nil, "error parsing"},
		{"bad int env", "", map[string]string{"CURATOR_MAX_CHARS": "lots"}, "CURATOR_MAX_CHARS"},
		{"bad float env", "", map[string]string{"CURATOR_TEMPERATURE": "warm"}, "CURATOR_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeConfig(t, dir, tt.yaml)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExplicitMissingFile(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestRequireProvider(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Provider: "ollama"}, false},
		{Config{Provider: "openai"}, true},
		{Config{Provider: "openai", OpenAIAPIKey: "k"}, false},
		{Config{Provider: "gemini"}, true},
		{Config{Provider: "anthropic", AnthropicAPIKey: "k"}, false},
	}
	for _, tt := range tests {
		if err := tt.cfg.RequireProvider(); (err != nil) != tt.wantErr {
			t.Errorf("RequireProvider(%s) error = %v, wantErr %v", tt.cfg.Provider, err, tt.wantErr)
		}
	}
}
