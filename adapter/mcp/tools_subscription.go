package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

type subscriptionCreateInput struct {
	Type          string              `json:"type" jsonschema:"required"`
	Address       domain.AddressInput `json:"shipping_address" jsonschema:"required"`
	Items         []itemInput         `json:"items,omitempty"`
	ProductID     string              `json:"product_id,omitempty"`
	Quantity      int                 `json:"quantity,omitempty"`
	DeliveryType  string              `json:"delivery_type,omitempty"`
	DeliveryNotes string              `json:"delivery_notes,omitempty"`
}

type subscriptionCreateOutput struct {
	Subscription queries.SubscriptionDTO `json:"subscription"`
	FirstOrder   *queries.OrderDTO       `json:"first_order,omitempty"`
}

type subscriptionListInput struct {
	Status string `json:"status,omitempty"`
}

type subscriptionIDInput struct {
	SubscriptionID string `json:"subscription_id" jsonschema:"required"`
}

type subscriptionUpdateInput struct {
	SubscriptionID         string  `json:"subscription_id" jsonschema:"required"`
	Type                   *string `json:"type,omitempty"`
	Status                 *string `json:"status,omitempty"`
	DeliveryType           *string `json:"delivery_type,omitempty"`
	DeliveryNotes          *string `json:"delivery_notes,omitempty"`
	PaymentSubscriptionRef *string `json:"payment_subscription_ref,omitempty"`
}

type subscriptionDeliverInput struct {
	SubscriptionID string      `json:"subscription_id" jsonschema:"required"`
	Date           string      `json:"requested_delivery_date,omitempty"`
	Notes          *string     `json:"delivery_notes,omitempty"`
	Items          []itemInput `json:"items,omitempty"`
}

type subscriptionTools struct {
	app *cli.App
}

func registerSubscriptionTools(srv *mcp.Server, deps ToolDependencies) error {
	t := subscriptionTools{app: deps.App}

	srv.Tool("subscription.create").
		Description("Create a flower subscription. Recurring subscriptions place their first order immediately.").
		Handler(t.create)

	srv.Tool("subscription.list").
		Description("List subscriptions, optionally filtered by status (ACTIVE, PAUSED, CANCELLED)").
		Handler(t.list)

	srv.Tool("subscription.get").
		Description("Show one subscription").
		Handler(t.get)

	srv.Tool("subscription.orders").
		Description("List the orders derived from a subscription, newest first").
		Handler(t.orders)

	srv.Tool("subscription.pause").
		Description("Pause an active subscription").
		Handler(t.pause)

	srv.Tool("subscription.resume").
		Description("Resume a paused subscription and schedule its next delivery").
		Handler(t.resume)

	srv.Tool("subscription.cancel").
		Description("Cancel a subscription. Cancelled subscriptions cannot be resumed.").
		Handler(t.cancel)

	srv.Tool("subscription.update").
		Description("Change a subscription's type, status, delivery method, notes or payment reference").
		Handler(t.update)

	srv.Tool("subscription.deliver").
		Description("Place a one-time order from an active spontaneous subscription").
		Handler(t.deliver)

	return nil
}

func (t subscriptionTools) create(ctx context.Context, input subscriptionCreateInput) (*subscriptionCreateOutput, error) {
	if t.app.CreateSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	if len(input.Items) > 0 && input.ProductID != "" {
		return nil, errors.New("use either items or product_id, not both")
	}

	var (
		result *commands.CreateSubscriptionResult
		err    error
	)
	if input.ProductID != "" {
		productID, perr := parseUUID(input.ProductID)
		if perr != nil {
			return nil, perr
		}
		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		result, err = t.app.CreateFromProductHandler.Handle(ctx, commands.CreateFromProductCommand{
			UserID:        t.app.CurrentUserID,
			ProductID:     productID,
			Quantity:      quantity,
			Type:          input.Type,
			Address:       input.Address,
			DeliveryType:  input.DeliveryType,
			DeliveryNotes: input.DeliveryNotes,
		})
	} else {
		items, perr := parseItems(input.Items)
		if perr != nil {
			return nil, perr
		}
		result, err = t.app.CreateSubscriptionHandler.Handle(ctx, commands.CreateSubscriptionCommand{
			UserID:        t.app.CurrentUserID,
			Type:          input.Type,
			Address:       input.Address,
			DeliveryType:  input.DeliveryType,
			DeliveryNotes: input.DeliveryNotes,
			Items:         items,
		})
	}
	if err != nil {
		return nil, cli.Explain(err)
	}

	out := &subscriptionCreateOutput{Subscription: queries.ToDTO(result.Subscription)}
	if result.FirstOrder != nil {
		order := queries.OrderToDTO(result.FirstOrder)
		out.FirstOrder = &order
	}
	return out, nil
}

func (t subscriptionTools) list(ctx context.Context, input subscriptionListInput) ([]queries.SubscriptionDTO, error) {
	if t.app.ListSubscriptionsHandler == nil {
		return nil, errNoDatabase
	}
	subs, err := t.app.ListSubscriptionsHandler.Handle(ctx, queries.ListSubscriptionsQuery{
		UserID: t.app.CurrentUserID,
		Status: input.Status,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return subs, nil
}

func (t subscriptionTools) get(ctx context.Context, input subscriptionIDInput) (*queries.SubscriptionDTO, error) {
	if t.app.GetSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub, err := t.app.GetSubscriptionHandler.Handle(ctx, queries.GetSubscriptionQuery{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return sub, nil
}

func (t subscriptionTools) orders(ctx context.Context, input subscriptionIDInput) ([]queries.OrderDTO, error) {
	if t.app.ListSubscriptionOrdersHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	orders, err := t.app.ListSubscriptionOrdersHandler.Handle(ctx, queries.ListSubscriptionOrdersQuery{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return orders, nil
}

func (t subscriptionTools) pause(ctx context.Context, input subscriptionIDInput) (*queries.SubscriptionDTO, error) {
	if t.app.PauseSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub, err := t.app.PauseSubscriptionHandler.Handle(ctx, commands.PauseSubscriptionCommand{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return subscriptionResult(sub), nil
}

func (t subscriptionTools) resume(ctx context.Context, input subscriptionIDInput) (*queries.SubscriptionDTO, error) {
	if t.app.ResumeSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub, err := t.app.ResumeSubscriptionHandler.Handle(ctx, commands.ResumeSubscriptionCommand{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return subscriptionResult(sub), nil
}

func (t subscriptionTools) cancel(ctx context.Context, input subscriptionIDInput) (*queries.SubscriptionDTO, error) {
	if t.app.CancelSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub, err := t.app.CancelSubscriptionHandler.Handle(ctx, commands.CancelSubscriptionCommand{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return subscriptionResult(sub), nil
}

func (t subscriptionTools) update(ctx context.Context, input subscriptionUpdateInput) (*queries.SubscriptionDTO, error) {
	if t.app.UpdateSubscriptionHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub, err := t.app.UpdateSubscriptionHandler.Handle(ctx, commands.UpdateSubscriptionCommand{
		SubscriptionID:         id,
		UserID:                 t.app.CurrentUserID,
		Type:                   input.Type,
		Status:                 input.Status,
		DeliveryType:           input.DeliveryType,
		DeliveryNotes:          input.DeliveryNotes,
		PaymentSubscriptionRef: input.PaymentSubscriptionRef,
	})
	if err != nil {
		return nil, cli.Explain(err)
	}
	return subscriptionResult(sub), nil
}

func (t subscriptionTools) deliver(ctx context.Context, input subscriptionDeliverInput) (*queries.OrderDTO, error) {
	if t.app.Engine == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	date, err := parseOptionalDate(input.Date)
	if err != nil {
		return nil, err
	}

	cmd := services.SpontaneousDeliveryCommand{
		SubscriptionID: id,
		UserID:         t.app.CurrentUserID,
		RequestedDate:  date,
		Notes:          input.Notes,
	}
	for _, item := range input.Items {
		productID, err := parseUUID(item.ProductID)
		if err != nil {
			return nil, err
		}
		cmd.Items = append(cmd.Items, services.DeliveryLine{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := t.app.Engine.DeriveSpontaneousDelivery(ctx, cmd)
	if err != nil {
		return nil, cli.Explain(err)
	}
	dto := queries.OrderToDTO(order)
	return &dto, nil
}
