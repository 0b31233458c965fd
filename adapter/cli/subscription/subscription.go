// Package subscription implements `flora subscription`.
package subscription

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// Cmd is the subscription command group
var Cmd = &cobra.Command{
	Use:     "subscription",
	Aliases: []string{"sub"},
	Short:   "Manage flower subscriptions",
	Long:    `Create, inspect, pause, resume, cancel and deliver flower subscriptions.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(pauseCmd)
	Cmd.AddCommand(resumeCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deliverCmd)
	Cmd.AddCommand(ordersCmd)
}

const dateLayout = "2006-01-02"

func parseSubscriptionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subscription ID: %w", err)
	}
	return id, nil
}

// parseItem reads PRODUCT_ID:QUANTITY, with an optional :UNIT_PRICE_CENTS
// when allowPrice is set.
func parseItem(s string, allowPrice bool) (services.DeliveryLine, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || (len(parts) == 3 && !allowPrice) {
		if allowPrice {
			return services.DeliveryLine{}, fmt.Errorf("invalid item %q (use PRODUCT_ID:QUANTITY[:UNIT_PRICE_CENTS])", s)
		}
		return services.DeliveryLine{}, fmt.Errorf("invalid item %q (use PRODUCT_ID:QUANTITY)", s)
	}
	productID, err := uuid.Parse(parts[0])
	if err != nil {
		return services.DeliveryLine{}, fmt.Errorf("invalid product ID in %q: %w", s, err)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return services.DeliveryLine{}, fmt.Errorf("invalid quantity in %q: %w", s, err)
	}
	line := services.DeliveryLine{ProductID: productID, Quantity: qty}
	if len(parts) == 3 {
		price, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return services.DeliveryLine{}, fmt.Errorf("invalid unit price in %q: %w", s, err)
		}
		line.UnitPrice = &price
	}
	return line, nil
}

func parseItems(values []string) ([]domain.ItemInput, error) {
	items := make([]domain.ItemInput, 0, len(values))
	for _, v := range values {
		line, err := parseItem(v, false)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSubscription(w io.Writer, s queries.SubscriptionDTO) {
	fmt.Fprintf(w, "Subscription %s\n", s.ID)
	fmt.Fprintf(w, "  type:          %s\n", s.Type)
	fmt.Fprintf(w, "  status:        %s\n", s.Status)
	fmt.Fprintf(w, "  next delivery: %s\n", formatDate(s.NextDeliveryDate))
	fmt.Fprintf(w, "  last delivery: %s\n", formatDate(s.LastDeliveryDate))
	fmt.Fprintf(w, "  delivery:      %s\n", s.DeliveryType)
	if s.DeliveryNotes != "" {
		fmt.Fprintf(w, "  notes:         %s\n", s.DeliveryNotes)
	}
	a := s.Address
	fmt.Fprintf(w, "  ship to:       %s %s, %s, %s %s %s\n", a.FirstName, a.LastName, a.Street1, a.City, a.State, a.ZipCode)
	for _, item := range s.Items {
		fmt.Fprintf(w, "  item:          %s x%d\n", item.ProductID, item.Quantity)
	}
}
