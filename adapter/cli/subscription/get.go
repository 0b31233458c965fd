package subscription

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:     "get <subscription-id>",
	Short:   "Show a subscription",
	Aliases: []string{"show"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseSubscriptionID(args[0])
		if err != nil {
			return err
		}

		dto, err := app.GetSubscriptionHandler.Handle(cmd.Context(), queries.GetSubscriptionQuery{
			SubscriptionID: id,
			UserID:         app.CurrentUserID,
		})
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", cli.Explain(err))
		}

		if getJSON {
			return printJSON(cmd.OutOrStdout(), dto)
		}
		printSubscription(cmd.OutOrStdout(), *dto)
		return nil
	},
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print as JSON")
}
