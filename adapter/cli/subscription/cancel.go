package subscription

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <subscription-id>",
	Short: "Cancel a subscription",
	Long:  `Cancel a subscription for good. Cancelled subscriptions cannot be resumed.`,
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

		sub, err := app.CancelSubscriptionHandler.Handle(cmd.Context(), commands.CancelSubscriptionCommand{
			SubscriptionID: id,
			UserID:         app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", cli.Explain(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s cancelled\n", sub.ID())
		return nil
	},
}
