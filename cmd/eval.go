package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/evaluation"
	"github.com/lehigh-university-libraries/curator/internal/report"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure extraction accuracy against reference records",
		Long: `Evaluation tools for measuring how closely LLM-extracted metadata matches
records prepared by archivists.

A dataset is a JSON array, JSON Lines or Parquet file whose entries carry the
source text and the reference record.`,
	}

	cmd.AddCommand(newEvalRunCmd(opts))
	cmd.AddCommand(newEvalReportCmd())

	return cmd
}

func newEvalRunCmd(opts *rootOptions) *cobra.Command {
	var (
		schemaName string
		format     string
		outputPath string
		resultsOut string
		sample     int
	)

	cmd := &cobra.Command{
		Use:   "run DATASET",
		Short: "Extract every dataset entry and compare it with its reference",
		Example: `  # Evaluate the first 20 entries with the configured provider
  curator eval run --sample 20 dataset.jsonl

  # Keep the full results for later reporting
  curator eval run --results-out results.json dataset.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			schemaType, err := schemaFlag(cfg, schemaName)
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, err := newExtractor(cfg)
			if err != nil {
				return err
			}

			items, err := batch.NewLoader(args[0]).LoadSample(sample)
			if err != nil {
				return err
			}

			s := schema.MustGet(schemaType)
			results, err := evaluation.Run(cmd.Context(), svc, items, s, cfg.Concurrency)
			if err != nil {
				return err
			}
			sum := evaluation.Summarize(results, s, cfg.Provider, cfg.Model)

			if resultsOut != "" {
				if err := saveResults(resultsOut, sum); err != nil {
					return err
				}
			}

			w, closeOutput, err := output(outputPath)
			if err != nil {
				return err
			}
			defer closeOutput()
			return report.WriteEvaluation(w, f, sum)
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema to compare (dublin_core or isad_g)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&resultsOut, "results-out", "", "Save full results as JSON or YAML (by extension)")
	cmd.Flags().IntVar(&sample, "sample", 0, "Only evaluate the first N entries (0 for all)")

	return cmd
}

func newEvalReportCmd() *cobra.Command {
	var (
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "report RESULTS",
		Short: "Render a saved evaluation run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			sum, err := loadResults(args[0])
			if err != nil {
				return err
			}

			w, closeOutput, err := output(outputPath)
			if err != nil {
				return err
			}
			defer closeOutput()
			return report.WriteEvaluation(w, f, sum)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func saveResults(path string, sum *evaluation.Summary) error {
	f := report.FormatJSON
	if isYAML(path) {
		f = report.FormatYAML
	}
	w, closeOutput, err := output(path)
	if err != nil {
		return err
	}
	if err := report.Write(w, f, sum); err != nil {
		closeOutput()
		return fmt.Errorf("failed to write results: %w", err)
	}
	return closeOutput()
}

func loadResults(path string) (*evaluation.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var sum evaluation.Summary
	if isYAML(path) {
		err = yaml.Unmarshal(data, &sum)
	} else {
		err = json.Unmarshal(data, &sum)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse results %s: %w", path, err)
	}
	return &sum, nil
}
