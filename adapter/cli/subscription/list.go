package subscription

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
)

var (
	listStatus string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List your subscriptions",
	Aliases: []string{"ls"},
	Long: `List subscriptions, newest first.

Examples:
  flora subscription list
  flora subscription list --status PAUSED`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		subs, err := app.ListSubscriptionsHandler.Handle(cmd.Context(), queries.ListSubscriptionsQuery{
			UserID: app.CurrentUserID,
			Status: listStatus,
		})
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", cli.Explain(err))
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return printJSON(out, subs)
		}
		if len(subs) == 0 {
			fmt.Fprintln(out, "No subscriptions found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-21s  %-9s  %-10s  %s\n", "ID", "TYPE", "STATUS", "NEXT", "DELIVERY")
		fmt.Fprintln(out, strings.Repeat("-", 96))
		for _, s := range subs {
			fmt.Fprintf(out, "%-36s  %-21s  %-9s  %-10s  %s\n",
				s.ID, s.Type, s.Status, formatDate(s.NextDeliveryDate), s.DeliveryType)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "only show ACTIVE, PAUSED or CANCELLED")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
}
