package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// CreateFromProductCommand subscribes to a single product, as offered on a
// product page.
type CreateFromProductCommand struct {
	UserID        uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	Type          string
	Address       domain.AddressInput
	DeliveryType  string
	DeliveryNotes string
}

// CreateFromProductHandler wraps the product in a one-line template and
// delegates to CreateSubscriptionHandler.
type CreateFromProductHandler struct {
	create *CreateSubscriptionHandler
}

// NewCreateFromProductHandler creates a new CreateFromProductHandler.
func NewCreateFromProductHandler(create *CreateSubscriptionHandler) *CreateFromProductHandler {
	return &CreateFromProductHandler{create: create}
}

// Handle executes the CreateFromProductCommand. Quantity defaults to 1.
func (h *CreateFromProductHandler) Handle(ctx context.Context, cmd CreateFromProductCommand) (*CreateSubscriptionResult, error) {
	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return h.create.Handle(ctx, CreateSubscriptionCommand{
		UserID:        cmd.UserID,
		Type:          cmd.Type,
		Address:       cmd.Address,
		DeliveryType:  cmd.DeliveryType,
		DeliveryNotes: cmd.DeliveryNotes,
		Items:         []domain.ItemInput{{ProductID: cmd.ProductID, Quantity: quantity}},
	})
}
