package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/report"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		format    string
		fromStore bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "check [FILE]",
		Short: "Detect inconsistencies across a collection of records",
		Long: `Compares the Dublin Core sections of a collection of records and reports
mixed date formats and repeated creator names, together with date and
language consistency scores.

Records come from a JSON, JSON Lines or Parquet file, or with --stored from
the most recent records in the database. Reports over stored records are
saved.`,
		Example: `  # Check a file of records
  curator check records.jsonl

  # Check the 200 most recent stored records
  curator check --stored --limit 200`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			var (
				records []models.Record
				ids     []int64
			)
			switch {
			case fromStore:
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				stored, err := store.Records(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, s := range stored {
					records = append(records, s.Record)
					ids = append(ids, s.ID)
				}

				rep := inconsistency.Detect(records)
				if len(ids) > 0 {
					id, err := store.SaveInconsistencyReport(cmd.Context(), "collection", rep, ids)
					if err != nil {
						return err
					}
					slog.Info("Saved inconsistency report", "id", id, "records", len(ids))
				}
				return report.WriteInconsistencies(cmd.OutOrStdout(), f, rep, quality.CheckConsistency(records))
			case len(args) == 1:
				items, err := batch.NewLoader(args[0]).LoadSample(limit)
				if err != nil {
					return err
				}
				for _, it := range items {
					records = append(records, it.Record)
				}
			default:
				return fmt.Errorf("either a records file or --stored is required")
			}

			return report.WriteInconsistencies(cmd.OutOrStdout(), f, inconsistency.Detect(records), quality.CheckConsistency(records))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().BoolVar(&fromStore, "stored", false, "Check records from the database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only check the first (or most recent) N records (0 for all)")

	return cmd
}
