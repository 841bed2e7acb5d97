package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/linkeddata"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/report"
)

func parseRecordID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id: %s", arg)
	}
	return id, nil
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var (
		status   string
		comment  string
		reviewer string
	)

	cmd := &cobra.Command{
		Use:   "review ID",
		Short: "Record review feedback for a stored record",
		Long: `Appends a review to a stored record. Valid statuses are undetermined,
approved, needs_revision and rejected. Without --status the record's review
history is printed.`,
		Example: `  # Approve record 12
  curator review 12 --status approved

  # Ask for a revision with a comment
  curator review 12 --status needs_revision --comment "Creator is the ministry, not the minister"

  # Show the review history
  curator review 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if status != "" {
				st, err := models.ParseValidationStatus(status)
				if err != nil {
					return err
				}
				fb, err := store.SaveFeedback(cmd.Context(), models.HumanFeedback{
					RecordID: id,
					Status:   st,
					Comment:  comment,
					Reviewer: reviewer,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Recorded %s review %d for record %d\n", fb.Status, fb.ID, id)
				return nil
			}

			feedback, err := store.Feedback(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(feedback) == 0 {
				fmt.Fprintf(w, "Record %d has no reviews\n", id)
				return nil
			}
			for _, fb := range feedback {
				fmt.Fprintf(w, "%s  %-15s %-10s %s\n", fb.CreatedAt.Format("2006-01-02 15:04:05"), fb.Status, fb.Reviewer, fb.Comment)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Review status (undetermined, approved, needs_revision, rejected)")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Review comment")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer name (default \"user\")")

	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored records with their validation and review state",
		Example: `  curator history --limit 20
  curator history --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), f, entries)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of rows (0 for all)")

	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record counts, average scores and distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return report.WriteStatistics(cmd.OutOrStdout(), f, stats)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")

	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format     string
		outputPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the record history",
		Long: `Exports the joined record, validation and review history as CSV, JSON,
YAML or Parquet. Parquet output requires --output.`,
		Example: `  curator export --format csv --output history.csv
  curator export --format parquet --output history.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "parquet" && (outputPath == "" || outputPath == "-") {
				return fmt.Errorf("parquet export requires --output")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w, closeOutput, err := output(outputPath)
			if err != nil {
				return err
			}

			if format == "parquet" {
				err = report.WriteHistoryParquet(w, entries)
			} else {
				var f report.Format
				f, err = report.ParseFormat(format)
				if err == nil {
					err = report.WriteHistory(w, f, entries)
				}
			}
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv, json, yaml, parquet)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (stdout when empty)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of rows (0 for all)")

	return cmd
}

func newJSONLDCmd(opts *rootOptions) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "jsonld ID",
		Short: "Print a stored record as JSON-LD",
		Example: `  curator jsonld 12
  curator jsonld 12 --base https://archives.example.org/records/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetRecord(cmd.Context(), id)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(linkeddata.FromRecord(rec.Record, base+strconv.FormatInt(id, 10)))
		},
	}

	cmd.Flags().StringVar(&base, "base", "urn:curator:record:", "Prefix for the record's @id")

	return cmd
}
