package domain

import (
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

// Item is one product line of a subscription's delivery template.
type Item struct {
	productID uuid.UUID
	quantity  int
}

// NewItem validates a line: a product is required and quantity must be at least one.
func NewItem(productID uuid.UUID, quantity int) (Item, error) {
	if productID == uuid.Nil {
		return Item{}, fmt.Errorf("%w: item product id is required", ErrValidation)
	}
	if quantity < 1 {
		return Item{}, fmt.Errorf("%w: item quantity must be at least 1, got %d", ErrValidation, quantity)
	}
	return Item{productID: productID, quantity: quantity}, nil
}

func (i Item) ProductID() uuid.UUID { return i.productID }
func (i Item) Quantity() int        { return i.quantity }

func (i Item) Equals(other sharedDomain.ValueObject) bool {
	o, ok := other.(Item)
	return ok && i == o
}

// ItemInput is the raw form of an Item.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// NewItems validates a delivery template; at least one line is required.
func NewItems(inputs []ItemInput) ([]Item, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		item, err := NewItem(in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// RehydrateItem rebuilds a stored line without validation.
func RehydrateItem(productID uuid.UUID, quantity int) Item {
	return Item{productID: productID, quantity: quantity}
}
