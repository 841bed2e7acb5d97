package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/lehigh-university-libraries/curator/internal/config"
	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/extraction"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/storage"
)

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	return store, nil
}

// newExtractor builds the extraction service for the configured provider.
func newExtractor(cfg config.Config) (*extraction.Service, error) {
	if err := cfg.RequireProvider(); err != nil {
		return nil, err
	}
	p, err := extraction.NewProvider(cfg.Provider, cfg.ProviderSettings())
	if err != nil {
		return nil, err
	}
	return extraction.NewService(p, extraction.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxChars:    cfg.MaxChars,
	}), nil
}

// newPipeline wires an oracle-backed pipeline. store may be nil.
func newPipeline(cfg config.Config, store *storage.Store) (*curation.Pipeline, *extraction.Service, error) {
	svc, err := newExtractor(cfg)
	if err != nil {
		return nil, nil, err
	}
	return curation.New(svc, store, cfg.Concurrency), svc, nil
}

// schemaFlag resolves the --schema flag against the configured default.
func schemaFlag(cfg config.Config, value string) (schema.Type, error) {
	if value == "" {
		return cfg.SchemaType(), nil
	}
	return schema.ParseType(value)
}

// output opens path for writing, or stdout when path is empty or "-".
func output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
