package subscription

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

var (
	createType     string
	createItems    []string
	createProduct  string
	createQuantity int
	createDelivery string
	createNotes    string
	createAddress  domain.AddressInput
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a subscription",
	Long: `Create a subscription with a shipping address and a delivery template.

Recurring subscriptions are delivered immediately and then on their cadence.
Spontaneous subscriptions get a surprise date inside their window.

Examples:
  flora subscription create --type RECURRING_WEEKLY --item 3f2c...:2 \
    --first-name Ada --last-name Lovelace --street "1 George St" \
    --city Sydney --state NSW --zip 2000
  flora subscription create --type SPONTANEOUS_MONTHLY --product 3f2c... --quantity 1 ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if len(createItems) > 0 && createProduct != "" {
			return fmt.Errorf("use either --item or --product, not both")
		}

		var result *commands.CreateSubscriptionResult
		if createProduct != "" {
			productID, err := uuid.Parse(createProduct)
			if err != nil {
				return fmt.Errorf("invalid product ID: %w", err)
			}
			result, err = app.CreateFromProductHandler.Handle(cmd.Context(), commands.CreateFromProductCommand{
				UserID:        app.CurrentUserID,
				ProductID:     productID,
				Quantity:      createQuantity,
				Type:          createType,
				Address:       createAddress,
				DeliveryType:  createDelivery,
				DeliveryNotes: createNotes,
			})
			if err != nil {
				return fmt.Errorf("failed to create subscription: %w", cli.Explain(err))
			}
		} else {
			items, err := parseItems(createItems)
			if err != nil {
				return err
			}
			result, err = app.CreateSubscriptionHandler.Handle(cmd.Context(), commands.CreateSubscriptionCommand{
				UserID:        app.CurrentUserID,
				Type:          createType,
				Address:       createAddress,
				DeliveryType:  createDelivery,
				DeliveryNotes: createNotes,
				Items:         items,
			})
			if err != nil {
				return fmt.Errorf("failed to create subscription: %w", cli.Explain(err))
			}
		}

		out := cmd.OutOrStdout()
		dto := queries.ToDTO(result.Subscription)
		fmt.Fprintln(out, "Subscription created!")
		printSubscription(out, dto)

		quote := app.Pricing.Quote(deliveryDomain.Type(dto.DeliveryType))
		fmt.Fprintf(out, "  delivery fee:  %s (%s)\n", formatCents(app.Pricing.ForSubscription(quote.Type)), quote.Estimate)

		switch {
		case result.FirstOrder != nil:
			fmt.Fprintf(out, "First order %s placed: %s\n", result.FirstOrder.ID, formatCents(result.FirstOrder.Total()))
		case !result.Subscription.Type().IsSpontaneous():
			fmt.Fprintln(out, "First order could not be placed; it will be retried on the next delivery date.")
		}
		return nil
	},
}

func init() {
	f := createCmd.Flags()
	f.StringVarP(&createType, "type", "t", "", "subscription type, e.g. RECURRING_WEEKLY or SPONTANEOUS_MONTHLY")
	f.StringArrayVarP(&createItems, "item", "i", nil, "template line PRODUCT_ID:QUANTITY (repeatable)")
	f.StringVar(&createProduct, "product", "", "create from a single product instead of --item")
	f.IntVar(&createQuantity, "quantity", 1, "quantity for --product")
	f.StringVarP(&createDelivery, "delivery", "d", "STANDARD", "delivery method (STANDARD, EXPRESS, SAME_DAY)")
	f.StringVar(&createNotes, "notes", "", "delivery notes")
	f.StringVar(&createAddress.FirstName, "first-name", "", "recipient first name")
	f.StringVar(&createAddress.LastName, "last-name", "", "recipient last name")
	f.StringVar(&createAddress.Street1, "street", "", "street address")
	f.StringVar(&createAddress.Street2, "street2", "", "apartment, suite, etc.")
	f.StringVar(&createAddress.City, "city", "", "city")
	f.StringVar(&createAddress.State, "state", "", "state")
	f.StringVar(&createAddress.ZipCode, "zip", "", "postal code")
	f.StringVar(&createAddress.Phone, "phone", "", "contact phone")
	_ = createCmd.MarkFlagRequired("type")
}
