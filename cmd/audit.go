package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/sitepulse/internal/audit"
	"github.com/JakeFAU/sitepulse/internal/compare"
	"github.com/JakeFAU/sitepulse/internal/report"
)

type auditOutput struct {
	Report     report.Report       `json:"report"`
	Comparison *compare.Comparison `json:"comparison,omitempty"`
}

func newAuditCmd() *cobra.Command {
	var previousPath string

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Audits one page and prints the JSON report",
		Long: `Fetches the page, scores it and prints the report as JSON. With --previous,
the report is also compared against a report saved from an earlier run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			var prev *report.Report
			opts := audit.Options{}
			if previousPath != "" {
				loaded, err := readReport(previousPath)
				if err != nil {
					return err
				}
				prev = &loaded
				opts.PreviousID = loaded.ID
			}

			rep, err := appInstance.Auditor().Run(cmd.Context(), args[0], opts)
			if err != nil {
				ae := audit.AsError(err)
				if ae.Hint != "" {
					return fmt.Errorf("%s: %s (%s)", ae.Code, ae.Message, ae.Hint)
				}
				return fmt.Errorf("%s: %s", ae.Code, ae.Message)
			}

			out := auditOutput{Report: rep}
			if prev != nil {
				cmp := compare.Reports(rep, *prev)
				out.Comparison = &cmp
			}
			return writeOutput(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&previousPath, "previous", "", "path to a saved report to compare against")
	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "diff <previous.json> <current.json>",
		Short:       "Compares two saved reports",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readReport(args[0])
			if err != nil {
				return err
			}
			now, err := readReport(args[1])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), compare.Reports(now, prev))
		},
	}
}

// readReport accepts either a bare report or the {"report": ...} envelope
// printed by the audit command.
func readReport(path string) (report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Report{}, fmt.Errorf("read report: %w", err)
	}
	var envelope struct {
		Report *report.Report `json:"report"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return report.Report{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	if envelope.Report != nil {
		return *envelope.Report, nil
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return report.Report{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	if rep.ID == "" {
		return report.Report{}, fmt.Errorf("decode report %s: missing id", path)
	}
	return rep, nil
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
