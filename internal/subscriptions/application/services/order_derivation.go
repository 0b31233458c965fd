// Package services turns subscriptions into orders: the derivation engine
// builds and submits orders, the scanner drives it for due subscriptions.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	subApplication "github.com/xl-c111/Flora-sub001/internal/subscriptions/application"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// Failure reasons carried on delivery_failed events and metric tags.
const (
	ReasonOutOfStock      = "out_of_stock"
	ReasonValidation      = "validation"
	ReasonProductNotFound = "product_not_found"
	ReasonUnknown         = "unknown"
)

// OrderDerivationEngine builds priced orders from subscriptions and submits
// them to the order service. Order creation never runs inside a subscription
// transaction; only the bookkeeping afterwards does.
type OrderDerivationEngine struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	orders  orderingDomain.OrderCreator
	prices  catalogDomain.PriceLookup
	pricing *deliveryDomain.PricingTable
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// EngineDeps are the collaborators of OrderDerivationEngine. Clock, Metrics,
// Pricing and Logger are optional.
type EngineDeps struct {
	Repo    domain.Repository
	Outbox  outbox.Repository
	UoW     sharedApplication.UnitOfWork
	Orders  orderingDomain.OrderCreator
	Prices  catalogDomain.PriceLookup
	Pricing *deliveryDomain.PricingTable
	Clock   sharedDomain.Clock
	Metrics observability.Metrics
	Logger  *slog.Logger
}

// NewOrderDerivationEngine creates an engine.
func NewOrderDerivationEngine(deps EngineDeps) *OrderDerivationEngine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Pricing == nil {
		deps.Pricing = deliveryDomain.NewPricingTable(nil)
	}
	return &OrderDerivationEngine{
		repo:    deps.Repo,
		outbox:  deps.Outbox,
		uow:     deps.UoW,
		orders:  deps.Orders,
		prices:  deps.Prices,
		pricing: deps.Pricing,
		clock:   sharedDomain.ClockOrSystem(deps.Clock),
		metrics: observability.MetricsOrNoop(deps.Metrics),
		logger:  deps.Logger,
	}
}

// DeriveScheduledOrder submits the subscription's standing order for its
// current next delivery date. On failure the subscription is left untouched,
// a delivery_failed event is written to the outbox and the returned error
// wraps domain.ErrUpstreamFailure.
func (e *OrderDerivationEngine) DeriveScheduledOrder(ctx context.Context, sub *domain.Subscription) (*orderingDomain.Order, error) {
	order, err := e.submitScheduled(ctx, sub)
	if err != nil {
		reason := failureReason(err)
		e.logger.Warn("scheduled delivery failed",
			"subscription_id", sub.ID(),
			"user_id", sub.OwnerID(),
			"reason", reason,
			"error", err,
		)
		e.metrics.Counter(observability.MetricDeliveriesFailed, 1,
			observability.T("reason", reason), observability.T("purchase_type", string(orderingDomain.PurchaseTypeSubscription)))

		failed := domain.NewDeliveryFailed(sub, reason, err, e.clock.Now())
		if recErr := subApplication.RecordEvents(ctx, e.outbox, sub.OwnerID(), failed); recErr != nil {
			e.logger.Error("failed to record delivery failure", "subscription_id", sub.ID(), "error", recErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	e.recordDelivery(ctx, sub.ID(), order)
	return order, nil
}

func (e *OrderDerivationEngine) submitScheduled(ctx context.Context, sub *domain.Subscription) (*orderingDomain.Order, error) {
	lines := make([]DeliveryLine, 0, len(sub.Items()))
	for _, item := range sub.Items() {
		lines = append(lines, DeliveryLine{ProductID: item.ProductID(), Quantity: item.Quantity()})
	}
	priced, err := e.price(ctx, lines)
	if err != nil {
		return nil, err
	}

	subID := sub.ID()
	req := orderingDomain.OrderRequest{
		SubscriptionID:        &subID,
		UserID:                sub.OwnerID(),
		PurchaseType:          orderingDomain.PurchaseTypeSubscription,
		Items:                 priced,
		Address:               orderAddress(sub.Address()),
		DeliveryType:          string(sub.DeliveryType()),
		DeliveryFee:           e.pricing.ForSubscription(sub.DeliveryType()),
		DeliveryNotes:         sub.DeliveryNotes(),
		RequestedDeliveryDate: sub.NextDeliveryDate(),
	}
	return e.orders.CreateOrder(ctx, req)
}

// DeliveryLine is a requested product line. A nil UnitPrice is resolved
// through the catalog.
type DeliveryLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice *int64    `json:"unit_price,omitempty"`
}

// SpontaneousDeliveryCommand asks for an extra delivery of a spontaneous
// subscription. Items, when given, replace the stored template for this
// order only.
type SpontaneousDeliveryCommand struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	RequestedDate  *time.Time
	Notes          *string
	Items          []DeliveryLine
}

// DeriveSpontaneousDelivery creates a one-time order for an ACTIVE
// spontaneous subscription owned by the caller. Every failure is returned;
// nothing is recorded unless the order was created.
func (e *OrderDerivationEngine) DeriveSpontaneousDelivery(ctx context.Context, cmd SpontaneousDeliveryCommand) (*orderingDomain.Order, error) {
	sub, err := e.repo.FindByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if !sub.IsOwnedBy(cmd.UserID) {
		return nil, domain.ErrForbidden
	}
	if err := sub.CheckSpontaneousDelivery(); err != nil {
		return nil, err
	}
	var noteOverride string
	if cmd.Notes != nil {
		if noteOverride, err = domain.NormalizeDeliveryNotes(*cmd.Notes); err != nil {
			return nil, err
		}
	}

	lines := cmd.Items
	if len(lines) == 0 {
		for _, item := range sub.Items() {
			lines = append(lines, DeliveryLine{ProductID: item.ProductID(), Quantity: item.Quantity()})
		}
	}
	for _, l := range lines {
		if _, err := domain.NewItem(l.ProductID, l.Quantity); err != nil {
			return nil, err
		}
	}
	priced, err := e.price(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	// Pricing may have taken a while; a pause or cancel since the first read wins.
	if sub, err = e.repo.FindByID(ctx, cmd.SubscriptionID); err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err := sub.CheckSpontaneousDelivery(); err != nil {
		return nil, err
	}

	notes := sub.DeliveryNotes()
	if cmd.Notes != nil {
		notes = noteOverride
	}
	subID := sub.ID()
	req := orderingDomain.OrderRequest{
		SubscriptionID:        &subID,
		UserID:                sub.OwnerID(),
		PurchaseType:          orderingDomain.PurchaseTypeOneTime,
		Items:                 priced,
		Address:               orderAddress(sub.Address()),
		DeliveryType:          string(sub.DeliveryType()),
		DeliveryFee:           e.pricing.Fee(sub.DeliveryType()),
		DeliveryNotes:         notes,
		RequestedDeliveryDate: cmd.RequestedDate,
	}
	order, err := e.orders.CreateOrder(ctx, req)
	if err != nil {
		e.metrics.Counter(observability.MetricDeliveriesFailed, 1,
			observability.T("reason", failureReason(err)), observability.T("purchase_type", string(orderingDomain.PurchaseTypeOneTime)))
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	e.recordDelivery(ctx, sub.ID(), order)
	return order, nil
}

// recordDelivery sets the last delivery date on the locked row. The order
// already exists at this point, so a bookkeeping failure is logged rather
// than reported as a failed delivery.
func (e *OrderDerivationEngine) recordDelivery(ctx context.Context, subscriptionID uuid.UUID, order *orderingDomain.Order) {
	e.metrics.Counter(observability.MetricDeliveriesDerived, 1, observability.T("purchase_type", string(order.PurchaseType)))

	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		sub, err := e.repo.FindByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrSubscriptionNotFound
		}
		if err := sub.MarkDelivered(order.ID, string(order.PurchaseType), e.clock.Now()); err != nil {
			return err
		}
		if err := e.repo.UpdateSchedule(txCtx, sub); err != nil {
			return err
		}
		return subApplication.RecordAggregateEvents(txCtx, e.outbox, sub.OwnerID(), sub)
	})
	if err != nil {
		e.logger.Error("order created but delivery was not recorded",
			"subscription_id", subscriptionID,
			"order_id", order.ID,
			"error", err,
		)
		return
	}
	e.logger.Info("delivery derived",
		"subscription_id", subscriptionID,
		"order_id", order.ID,
		"purchase_type", order.PurchaseType,
		"total", order.Total(),
	)
}

func (e *OrderDerivationEngine) price(ctx context.Context, lines []DeliveryLine) ([]orderingDomain.OrderLine, error) {
	var unpriced []uuid.UUID
	for _, l := range lines {
		if l.UnitPrice == nil {
			unpriced = append(unpriced, l.ProductID)
		}
	}
	prices := map[uuid.UUID]int64{}
	if len(unpriced) > 0 {
		var err error
		if prices, err = e.prices.PricesOf(ctx, unpriced); err != nil {
			return nil, fmt.Errorf("failed to price items: %w", err)
		}
	}

	out := make([]orderingDomain.OrderLine, 0, len(lines))
	for _, l := range lines {
		price := prices[l.ProductID]
		if l.UnitPrice != nil {
			price = *l.UnitPrice
		}
		out = append(out, orderingDomain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: price})
	}
	return out, nil
}

func orderAddress(a domain.AddressSnapshot) orderingDomain.Address {
	return orderingDomain.Address{
		FirstName: a.FirstName(),
		LastName:  a.LastName(),
		Street1:   a.Street1(),
		Street2:   a.Street2(),
		City:      a.City(),
		State:     a.State(),
		ZipCode:   a.ZipCode(),
		Phone:     a.Phone(),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, orderingDomain.ErrOutOfStock):
		return ReasonOutOfStock
	case errors.Is(err, catalogDomain.ErrProductNotFound):
		return ReasonProductNotFound
	case errors.Is(err, orderingDomain.ErrOrderValidation):
		return ReasonValidation
	default:
		return ReasonUnknown
	}
}
