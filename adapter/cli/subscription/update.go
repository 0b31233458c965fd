package subscription

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
)

var (
	updateType       string
	updateStatus     string
	updateDelivery   string
	updateNotes      string
	updatePaymentRef string
)

var updateCmd = &cobra.Command{
	Use:   "update <subscription-id>",
	Short: "Change a subscription",
	Long: `Change a subscription's type, status, delivery method, notes or payment
reference. Only the flags you pass are changed. Changing the type keeps the
current delivery date.

Examples:
  flora subscription update 3f2c... --delivery EXPRESS
  flora subscription update 3f2c... --status PAUSED`,
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

		update := commands.UpdateSubscriptionCommand{SubscriptionID: id, UserID: app.CurrentUserID}
		flags := cmd.Flags()
		if flags.Changed("type") {
			update.Type = &updateType
		}
		if flags.Changed("status") {
			update.Status = &updateStatus
		}
		if flags.Changed("delivery") {
			update.DeliveryType = &updateDelivery
		}
		if flags.Changed("notes") {
			update.DeliveryNotes = &updateNotes
		}
		if flags.Changed("payment-ref") {
			update.PaymentSubscriptionRef = &updatePaymentRef
		}
		if update.Type == nil && update.Status == nil && update.DeliveryType == nil &&
			update.DeliveryNotes == nil && update.PaymentSubscriptionRef == nil {
			return errors.New("nothing to update")
		}

		sub, err := app.UpdateSubscriptionHandler.Handle(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", cli.Explain(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Subscription updated!")
		printSubscription(out, queries.ToDTO(sub))
		return nil
	},
}

func init() {
	f := updateCmd.Flags()
	f.StringVarP(&updateType, "type", "t", "", "new subscription type")
	f.StringVarP(&updateStatus, "status", "s", "", "new status (ACTIVE, PAUSED, CANCELLED)")
	f.StringVarP(&updateDelivery, "delivery", "d", "", "new delivery method")
	f.StringVar(&updateNotes, "notes", "", "new delivery notes")
	f.StringVar(&updatePaymentRef, "payment-ref", "", "payment provider subscription reference")
}
