package subscription

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
)

var (
	deliverDate  string
	deliverNotes string
	deliverItems []string
)

var deliverCmd = &cobra.Command{
	Use:   "deliver <subscription-id>",
	Short: "Order an extra delivery of a spontaneous subscription",
	Long: `Place a one-time order from an active spontaneous subscription. The
subscription's schedule is left alone.

Items replace the stored template for this order only. A unit price may be
given to override the catalog price.

Examples:
  flora subscription deliver 3f2c... --date 2024-02-14 --notes "Happy Valentine's"
  flora subscription deliver 3f2c... --item 9a1b...:3 --item 77d0...:1:1299`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseSubscriptionID(args[0])
		if err != nil {
			return err
		}

		req := services.SpontaneousDeliveryCommand{SubscriptionID: id, UserID: app.CurrentUserID}
		if deliverDate != "" {
			date, err := time.Parse(dateLayout, deliverDate)
			if err != nil {
				return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
			}
			req.RequestedDate = &date
		}
		if cmd.Flags().Changed("notes") {
			req.Notes = &deliverNotes
		}
		for _, v := range deliverItems {
			line, err := parseItem(v, true)
			if err != nil {
				return err
			}
			req.Items = append(req.Items, line)
		}

		order, err := app.Engine.DeriveSpontaneousDelivery(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to place delivery: %w", cli.Explain(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Order %s placed\n", order.ID)
		fmt.Fprintf(out, "  subtotal:     %s\n", formatCents(order.Subtotal()))
		fmt.Fprintf(out, "  delivery fee: %s\n", formatCents(order.DeliveryFee))
		fmt.Fprintf(out, "  total:        %s\n", formatCents(order.Total()))
		if order.RequestedDeliveryDate != nil {
			fmt.Fprintf(out, "  deliver on:   %s\n", formatDate(order.RequestedDeliveryDate))
		}
		return nil
	},
}

func init() {
	f := deliverCmd.Flags()
	f.StringVar(&deliverDate, "date", "", "requested delivery date (YYYY-MM-DD)")
	f.StringVar(&deliverNotes, "notes", "", "notes for this delivery only")
	f.StringArrayVarP(&deliverItems, "item", "i", nil, "line PRODUCT_ID:QUANTITY[:UNIT_PRICE_CENTS] (repeatable)")
}
