package subscription

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <subscription-id>",
	Short: "Pause deliveries",
	Long: `Pause an active subscription. No deliveries happen while it is paused.
Pausing an already paused subscription does nothing.`,
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

		sub, err := app.PauseSubscriptionHandler.Handle(cmd.Context(), commands.PauseSubscriptionCommand{
			SubscriptionID: id,
			UserID:         app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to pause subscription: %w", cli.Explain(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s is %s\n", sub.ID(), sub.Status())
		return nil
	},
}
