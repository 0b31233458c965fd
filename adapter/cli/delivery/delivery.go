// Package delivery implements `flora delivery`.
package delivery

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
)

// Cmd is the delivery command group
var Cmd = &cobra.Command{
	Use:   "delivery",
	Short: "Delivery methods and fees",
}

var quoteCmd = &cobra.Command{
	Use:   "quote [delivery-type]",
	Short: "Show delivery fees and estimates",
	Long: `Show the fee and estimate for one delivery method, or for all of them.

Examples:
  flora delivery quote
  flora delivery quote express`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		types := []deliveryDomain.Type{
			deliveryDomain.TypeStandard,
			deliveryDomain.TypeExpress,
			deliveryDomain.TypeSameDay,
			deliveryDomain.TypePickup,
		}
		if len(args) == 1 {
			t, err := deliveryDomain.ParseType(args[0])
			if err != nil {
				return err
			}
			types = []deliveryDomain.Type{t}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-9s  %8s  %-18s  %s\n", "METHOD", "FEE", "ESTIMATE", "SUBSCRIPTIONS")
		fmt.Fprintln(out, strings.Repeat("-", 56))
		for _, t := range types {
			q := app.Pricing.Quote(t)
			allowed := "yes"
			if !q.Type.AllowedForSubscriptions() {
				allowed = "no"
			}
			fmt.Fprintf(out, "%-9s  %8s  %-18s  %s\n", q.Type, fmt.Sprintf("$%d.%02d", q.Fee/100, q.Fee%100), q.Estimate, allowed)
		}
		return nil
	},
}

func init() {
	Cmd.AddCommand(quoteCmd)
}
