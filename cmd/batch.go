package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/document"
	"github.com/lehigh-university-libraries/curator/internal/report"
	"github.com/lehigh-university-libraries/curator/internal/session"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		schemaName  string
		format      string
		outputPath  string
		recordsPath string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch PATH...",
		Short: "Extract and validate metadata from many documents",
		Long: `Runs every text document under the given files or directories through the
LLM and the validator with bounded concurrency, stores the results, and
prints a batch summary including cross-record inconsistencies.

Directories are read non-recursively; files that are not plain text are
skipped.`,
		Example: `  # Curate a folder of transcriptions with 8 parallel requests
  curator batch --concurrency 8 ./transcriptions

  # Keep the extracted records as Parquet for later re-validation
  curator batch --records-out records.parquet ./transcriptions`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}
			schemaType, err := schemaFlag(cfg, schemaName)
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			inputs, err := collectInputs(args)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no text documents found")
			}
			slog.Info("Starting batch", "documents", len(inputs), "concurrency", cfg.Concurrency, "schema", schemaType)

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, _, err := newPipeline(cfg, store)
			if err != nil {
				return err
			}

			sum, err := pipeline.ProcessBatch(cmd.Context(), session.New(), inputs, schemaType)
			if err != nil {
				return err
			}

			if recordsPath != "" {
				if err := writeRecords(recordsPath, sum); err != nil {
					return err
				}
			}

			w, closeOutput, err := output(outputPath)
			if err != nil {
				return err
			}
			defer closeOutput()
			return report.WriteSummary(w, f, sum)
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema to validate against (dublin_core or isad_g)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the summary to a file instead of stdout")
	cmd.Flags().StringVar(&recordsPath, "records-out", "", "Write extracted records to a Parquet file")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Parallel LLM requests (overrides config)")

	return cmd
}

func collectInputs(paths []string) ([]curation.Input, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !document.IsSupported(e.Name(), "") {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(files)

	inputs := make([]curation.Input, 0, len(files))
	for _, path := range files {
		doc, err := document.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping document", "path", path, "error", err)
			continue
		}
		inputs = append(inputs, curation.Input{Name: doc.Name, Text: doc.Text})
	}
	return inputs, nil
}

func writeRecords(path string, sum *batch.Summary) error {
	items := make([]batch.Item, 0, len(sum.Results))
	for _, r := range sum.Results {
		if r.Error != "" {
			continue
		}
		items = append(items, batch.Item{Name: r.Name, Record: r.Record})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := batch.WriteParquet(f, items); err != nil {
		f.Close()
		return err
	}
	slog.Info("Wrote records", "path", path, "count", len(items))
	return f.Close()
}
