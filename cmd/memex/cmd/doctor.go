package cmd

import (
	"encoding/json"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		source      string
		destination string
		verbose     bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a build can run",
		Long: heredoc.Doc(`
			Run the checks a build depends on: the source is readable, the
			destination's parent is writable with enough free space, the file
			descriptor limit is high enough and pdftotext can be found.

			A missing pdftotext is only a warning. PDFs are then counted as failed.
		`),
		Example: heredoc.Doc(`
			memex doctor --source ~/Documents --destination ~/.memex/index
			memex doctor --json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			target := preflight.Target{PDFToText: cfg.Extract.PDFToText}
			if source != "" {
				if target.Source, err = filepath.Abs(source); err != nil {
					return err
				}
			}
			if destination != "" {
				if target.Destination, err = filepath.Abs(destination); err != nil {
					return err
				}
			}

			checker := preflight.New(preflight.WithOutput(cmd.OutOrStdout()), preflight.WithVerbose(verbose))
			results := checker.RunAll(cmd.Context(), target)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return merrors.New(merrors.ErrCodeConfigInvalid, "system check failed", nil).
					WithSuggestion("Fix the failed checks above and run 'memex doctor' again")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Directory or file to check as a build source")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Index directory to check")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for each check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
