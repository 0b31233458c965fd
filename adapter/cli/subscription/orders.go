package subscription

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
)

var ordersJSON bool

var ordersCmd = &cobra.Command{
	Use:   "orders <subscription-id>",
	Short: "List orders derived from a subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseSubscriptionID(args[0])
		if err != nil {
			return err
		}

		orders, err := app.ListSubscriptionOrdersHandler.Handle(cmd.Context(), queries.ListSubscriptionOrdersQuery{
			SubscriptionID: id,
			UserID:         app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", cli.Explain(err))
		}

		out := cmd.OutOrStdout()
		if ordersJSON {
			return printJSON(out, orders)
		}
		if len(orders) == 0 {
			fmt.Fprintln(out, "No orders yet.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-12s  %-10s  %10s\n", "ID", "TYPE", "DELIVER ON", "TOTAL")
		fmt.Fprintln(out, strings.Repeat("-", 74))
		for _, o := range orders {
			fmt.Fprintf(out, "%-36s  %-12s  %-10s  %10s\n",
				o.ID, o.PurchaseType, formatDate(o.RequestedDeliveryDate), formatCents(o.Total))
		}
		return nil
	},
}

func init() {
	ordersCmd.Flags().BoolVar(&ordersJSON, "json", false, "print as JSON")
}
