package domain

import (
	"context"

	"github.com/google/uuid"
)

// OrderCreator creates orders in the order-management service.
// Failures wrap ErrOutOfStock, ErrOrderValidation or ErrOrderUnknown.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// OrderHistory lists orders derived from a subscription, newest first.
type OrderHistory interface {
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*Order, error)
}
