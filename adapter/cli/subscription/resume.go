package subscription

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <subscription-id>",
	Short: "Resume deliveries",
	Long:  `Resume a paused subscription. The next delivery is scheduled from today.`,
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

		sub, err := app.ResumeSubscriptionHandler.Handle(cmd.Context(), commands.ResumeSubscriptionCommand{
			SubscriptionID: id,
			UserID:         app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to resume subscription: %w", cli.Explain(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s is %s, next delivery %s\n",
			sub.ID(), sub.Status(), formatDate(sub.NextDeliveryDate()))
		return nil
	},
}
