// Package domain describes the orders the subscription engine asks the order
// service to create.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PurchaseType distinguishes scheduled deliveries from one-off ones.
type PurchaseType string

const (
	PurchaseTypeSubscription PurchaseType = "SUBSCRIPTION"
	PurchaseTypeOneTime      PurchaseType = "ONE_TIME"
)

// Status is the order service's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
)

// OrderLine is one priced product line. UnitPrice is in minor currency units.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// LineTotal is quantity times unit price.
func (l OrderLine) LineTotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Address is the shipping address printed on the order.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street1   string `json:"street1"`
	Street2   string `json:"street2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone,omitempty"`
}

// OrderRequest is everything the order service needs to create an order.
type OrderRequest struct {
	SubscriptionID        *uuid.UUID   `json:"subscription_id,omitempty"`
	UserID                uuid.UUID    `json:"user_id"`
	PurchaseType          PurchaseType `json:"purchase_type"`
	Items                 []OrderLine  `json:"items"`
	Address               Address      `json:"shipping_address"`
	DeliveryType          string       `json:"delivery_type"`
	DeliveryFee           int64        `json:"delivery_fee"`
	DeliveryNotes         string       `json:"delivery_notes,omitempty"`
	RequestedDeliveryDate *time.Time   `json:"requested_delivery_date,omitempty"`
}

// Subtotal sums the line totals.
func (r OrderRequest) Subtotal() int64 {
	var total int64
	for _, l := range r.Items {
		total += l.LineTotal()
	}
	return total
}

// Total is the subtotal plus the delivery fee.
func (r OrderRequest) Total() int64 {
	return r.Subtotal() + r.DeliveryFee
}

// Validate checks the request before it leaves the process.
func (r OrderRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("%w: user is required", ErrOrderValidation)
	}
	switch r.PurchaseType {
	case PurchaseTypeSubscription, PurchaseTypeOneTime:
	default:
		return fmt.Errorf("%w: unknown purchase type %q", ErrOrderValidation, r.PurchaseType)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrOrderValidation)
	}
	for i, l := range r.Items {
		if l.ProductID == uuid.Nil || l.Quantity < 1 || l.UnitPrice < 0 {
			return fmt.Errorf("%w: invalid line %d", ErrOrderValidation, i)
		}
	}
	if r.DeliveryFee < 0 {
		return fmt.Errorf("%w: negative delivery fee", ErrOrderValidation)
	}
	return nil
}

// Order is an order as the order service recorded it.
type Order struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	OrderRequest
}
