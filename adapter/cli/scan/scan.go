// Package scan implements `flora scan`.
package scan

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
)

// Cmd is the scan command group
var Cmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the due-delivery scanner",
}

var (
	scanDate string
	scanJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver every subscription that is due",
	Long: `Deliver every active subscription whose next delivery date has arrived and
move each one to its next slot.

Without --date the scan runs as of now. With --date it covers the whole day.

Examples:
  flora scan run
  flora scan run --date 2024-03-08`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		asOf := app.Today()
		if scanDate != "" {
			day, err := time.Parse("2006-01-02", scanDate)
			if err != nil {
				return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
			}
			asOf = services.EndOfDay(day)
		}

		report, err := app.Scanner.ProcessDueDeliveries(cmd.Context(), asOf)
		if err != nil {
			return fmt.Errorf("scan failed: %w", cli.Explain(err))
		}

		out := cmd.OutOrStdout()
		if scanJSON {
			return printJSON(out, report)
		}
		fmt.Fprintf(out, "Scan as of %s\n", report.AsOf.Format(time.RFC3339))
		fmt.Fprintf(out, "  due:               %d\n", report.Due)
		fmt.Fprintf(out, "  delivered:         %d\n", report.Delivered)
		fmt.Fprintf(out, "  failed:            %d\n", report.Failed)
		fmt.Fprintf(out, "  rescheduled:       %d\n", report.Rescheduled)
		if report.RescheduleFailed > 0 {
			fmt.Fprintf(out, "  reschedule failed: %d\n", report.RescheduleFailed)
		}
		if report.Skipped > 0 {
			fmt.Fprintf(out, "  skipped:           %d\n", report.Skipped)
		}
		fmt.Fprintf(out, "  took:              %s\n", report.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&scanDate, "date", "", "scan as of the end of this day (YYYY-MM-DD)")
	runCmd.Flags().BoolVar(&scanJSON, "json", false, "print the report as JSON")
	Cmd.AddCommand(runCmd)
}
