package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dbPath     string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "curator",
		Short: "Archival metadata extraction and validation",
		Long: `Curator extracts Dublin Core and ISAD(G) metadata from archival documents
using LLMs, validates the fields, scores record quality, and keeps records,
validation results and review feedback in a local SQLite database.

Configuration is read from curator.yaml (or --config / CURATOR_CONFIG),
a .env file and environment variables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if opts.verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newReviewCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newJSONLDCmd(opts))
	cmd.AddCommand(newEvalCmd(opts))

	return cmd
}
