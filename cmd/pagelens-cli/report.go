package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens/cmd/pagelens-cli/ui"
	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/report"
)

// reportInput matches the JSON written by the process command and accepted
// by the API's generate-pdf endpoint.
type reportInput struct {
	Results []domain.ReportEntry `json:"results"`
}

func newReportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Render processed results into a PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}

			var input reportInput
			if err := json.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("parse results: %w", err)
			}

			sp := ui.NewSpinner("rendering report")
			sp.Start()
			renderer := report.NewRenderer(report.Options{FontPath: cfg.Report.FontPath}, logger)
			pdf, err := renderer.Render(input.Results)
			sp.Stop()
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}

			if err := os.WriteFile(outputPath, pdf, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			ui.Success("Wrote %s (%d entries)", outputPath, len(input.Results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "report.pdf", "output PDF path")
	return cmd
}
