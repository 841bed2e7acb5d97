package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/document"
	"github.com/lehigh-university-libraries/curator/internal/report"
	"github.com/lehigh-university-libraries/curator/internal/session"
	"github.com/lehigh-university-libraries/curator/internal/storage"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var (
		schemaName string
		format     string
		outputPath string
		noSave     bool
		suggest    bool
	)

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract and validate metadata from one text document",
		Long: `Sends a plain-text document to the configured LLM, validates the extracted
record against the selected schema, and stores both in the database.

With --format json or yaml the full outcome (record, validation report and
session statistics) is written; the table formats print the validation report.`,
		Example: `  # Extract Dublin Core metadata with the configured provider
  curator extract letter.txt

  # Extract ISAD(G) metadata with OpenAI and print JSON
  CURATOR_PROVIDER=openai curator extract --schema isad_g --format json letter.txt

  # Try a document without storing anything, and ask for suggestions
  curator extract --no-save --suggest letter.txt`,
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

			doc, err := document.ReadFile(args[0])
			if err != nil {
				return err
			}
			if doc.Encoding != "utf-8" {
				slog.Info("Decoded document with fallback encoding", "file", doc.Name, "encoding", doc.Encoding)
			}

			var store *storage.Store
			if !noSave {
				store, err = openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			pipeline, svc, err := newPipeline(cfg, store)
			if err != nil {
				return err
			}

			out, err := pipeline.Process(cmd.Context(), session.New(), curation.Input{Name: doc.Name, Text: doc.Text}, schemaType)
			if err != nil {
				return err
			}

			if suggest {
				suggestions, err := svc.Suggest(cmd.Context(), out.Record)
				if err != nil {
					slog.Warn("Unable to fetch suggestions", "error", err)
				} else {
					out.Record.Suggestions = append(out.Record.Suggestions, suggestions...)
				}
			}

			w, closeOutput, err := output(outputPath)
			if err != nil {
				return err
			}
			defer closeOutput()

			switch f {
			case report.FormatJSON, report.FormatYAML:
				return report.Write(w, f, out)
			}

			if out.RecordID > 0 {
				fmt.Fprintf(w, "Stored record %d (%s)\n", out.RecordID, out.FileName)
			}
			fmt.Fprintf(w, "Confidence: %.2f\n", out.Record.ConfidenceScore)
			if err := report.WriteValidation(w, f, out.Report); err != nil {
				return err
			}
			for _, s := range out.Record.Suggestions {
				fmt.Fprintf(w, "Suggestion: %s\n", s)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema to validate against (dublin_core or isad_g)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, markdown, json, yaml, csv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the record")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Ask the LLM for improvement suggestions")

	return cmd
}
