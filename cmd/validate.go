package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/report"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/session"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		schemaName string
		format     string
		outputPath string
		sample     int
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate candidate records without calling an LLM",
		Long: `Loads candidate records from a JSON array, JSON Lines or Parquet file and
validates each one against the selected schema. Entries that are not valid
records are validated as the empty record.

With --save the records and their validation results are stored.`,
		Example: `  # Validate a JSON Lines export against ISAD(G)
  curator validate --schema isad_g records.jsonl

  # Validate the first 100 rows of a Parquet file and store them
  curator validate --sample 100 --save records.parquet`,
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

			items, err := batch.NewLoader(args[0]).LoadSample(sample)
			if err != nil {
				return err
			}

			var sum *batch.Summary
			if save {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				sum, err = curation.New(nil, store, cfg.Concurrency).IngestBatch(cmd.Context(), session.New(), items, schemaType)
				if err != nil {
					return err
				}
			} else {
				sum = batch.Summarize(batch.Validate(items, schema.MustGet(schemaType)), schemaType)
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
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().IntVar(&sample, "sample", 0, "Only validate the first N records (0 for all)")
	cmd.Flags().BoolVar(&save, "save", false, "Store records and validation results")

	return cmd
}
