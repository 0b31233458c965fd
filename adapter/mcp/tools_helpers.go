package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

const dateLayout = "2006-01-02"

var errNoDatabase = errors.New("this tool requires a database connection")

type itemInput struct {
	ProductID string `json:"product_id" jsonschema:"required"`
	Quantity  int    `json:"quantity" jsonschema:"required"`
	// UnitPrice overrides the catalog price, in cents. Only honoured by
	// subscription.deliver.
	UnitPrice *int64 `json:"unit_price,omitempty"`
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return &parsed, nil
}

func parseItems(in []itemInput) ([]domain.ItemInput, error) {
	items := make([]domain.ItemInput, 0, len(in))
	for _, item := range in {
		if item.UnitPrice != nil {
			return nil, errors.New("unit_price is only accepted by subscription.deliver")
		}
		productID, err := parseUUID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item product_id: %w", err)
		}
		items = append(items, domain.ItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	return items, nil
}

func subscriptionResult(s *domain.Subscription) *queries.SubscriptionDTO {
	dto := queries.ToDTO(s)
	return &dto
}
