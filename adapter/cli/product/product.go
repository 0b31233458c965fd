// Package product implements `flora product`, a minimal catalog editor for
// local installs.
package product

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
)

// Cmd is the product command group
var Cmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the local product catalog",
}

var (
	addPrice int64
	addStock int
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a product",
	Long: `Add a product to the local catalog. Prices are in cents.

Examples:
  flora product add "Red roses (12)" --price 4500 --stock 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		p, err := catalogDomain.NewProduct(args[0], addPrice, addStock, app.Today())
		if err != nil {
			return err
		}
		if err := app.Products.Save(cmd.Context(), p); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Product added: %s\n", p.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List products",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		products, err := app.Products.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(products) == 0 {
			fmt.Fprintln(out, "No products.")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-24s  %9s  %5s\n", "ID", "NAME", "PRICE", "STOCK")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, p := range products {
			fmt.Fprintf(out, "%-36s  %-24s  %9s  %5d\n", p.ID, p.Name, fmt.Sprintf("$%d.%02d", p.PriceCents/100, p.PriceCents%100), p.Stock)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().Int64Var(&addPrice, "price", 0, "unit price in cents")
	addCmd.Flags().IntVar(&addStock, "stock", 0, "units in stock")
	_ = addCmd.MarkFlagRequired("price")
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
}
