package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/handlers"
	"github.com/lehigh-university-libraries/curator/internal/session"
)

const sessionIdleLimit = 24 * time.Hour

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the curation API server",
		Long: `Starts the JSON API on the configured port.

The API accepts documents for extraction, validates records, reports
cross-record inconsistencies, and exposes stored records, review feedback,
history and statistics.`,
		Example: `  # Start server on the configured port (default 8080)
  curator serve

  # Start server on a custom port
  curator serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, _, err := newPipeline(cfg, store)
			if err != nil {
				return err
			}

			sessions := session.NewStore()
			handler := handlers.New(pipeline, store, sessions, cfg.SchemaType())

			mux := http.NewServeMux()
			handler.Register(mux)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           http.TimeoutHandler(mux, cfg.RequestTimeout(), "request timed out"),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go pruneSessions(cmd.Context(), sessions)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Curator API available", "addr", addr, "provider", cfg.Provider, "model", cfg.Model, "db", cfg.DBPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")

	return cmd
}

func pruneSessions(ctx context.Context, sessions *session.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(sessionIdleLimit); n > 0 {
				slog.Info("Pruned idle sessions", "count", n)
			}
		}
	}
}
