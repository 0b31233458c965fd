// Package commands holds the subscription write-side handlers. Each handler
// runs in a unit of work and writes the aggregate's events to the outbox.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	identityDomain "github.com/xl-c111/Flora-sub001/internal/identity/domain"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	subApplication "github.com/xl-c111/Flora-sub001/internal/subscriptions/application"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// CreateSubscriptionCommand contains the data needed to create a subscription.
type CreateSubscriptionCommand struct {
	UserID        uuid.UUID
	Type          string
	Address       domain.AddressInput
	DeliveryType  string
	DeliveryNotes string
	Items         []domain.ItemInput
}

// CreateSubscriptionResult contains the stored subscription and, for
// recurring types, the first order if it could be created.
type CreateSubscriptionResult struct {
	Subscription *domain.Subscription
	FirstOrder   *orderingDomain.Order
}

// CreateSubscriptionHandler handles the CreateSubscriptionCommand.
type CreateSubscriptionHandler struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	users   identityDomain.UserEnsurer
	deriver services.ScheduledOrderDeriver
	policy  *domain.SchedulePolicy
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewCreateSubscriptionHandler creates a new CreateSubscriptionHandler.
func NewCreateSubscriptionHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	users identityDomain.UserEnsurer,
	deriver services.ScheduledOrderDeriver,
	policy *domain.SchedulePolicy,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CreateSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateSubscriptionHandler{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		users:   users,
		deriver: deriver,
		policy:  policy,
		clock:   sharedDomain.ClockOrSystem(clock),
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// Handle executes the CreateSubscriptionCommand. A recurring subscription
// gets its first order right away; failing to create it does not fail the
// command.
func (h *CreateSubscriptionHandler) Handle(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	params, err := parseNewSubscription(cmd)
	if err != nil {
		return nil, err
	}

	sub, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		if err := h.users.EnsureExists(txCtx, cmd.UserID); err != nil {
			return nil, err
		}
		sub, err := domain.NewSubscription(params, h.policy, h.clock.Now())
		if err != nil {
			return nil, err
		}
		if err := h.repo.Save(txCtx, sub); err != nil {
			return nil, err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, h.outbox, cmd.UserID, sub); err != nil {
			return nil, err
		}
		return sub, nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricSubscriptionsCreated, 1, observability.T("type", string(sub.Type())))
	h.logger.Info("subscription created",
		"subscription_id", sub.ID(),
		"user_id", cmd.UserID,
		"type", sub.Type(),
		"next_delivery_date", sub.NextDeliveryDate(),
	)

	result := &CreateSubscriptionResult{Subscription: sub}
	if sub.Type().IsSpontaneous() {
		return result, nil
	}

	order, err := h.deriver.DeriveScheduledOrder(ctx, sub)
	if err != nil {
		h.logger.Warn("first delivery of new subscription failed",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return result, nil
	}
	result.FirstOrder = order

	// Both the subscription and its first order are committed here, so a
	// failed reload still returns the in-memory subscription.
	reloaded, err := h.repo.FindByID(ctx, sub.ID())
	if err != nil {
		h.logger.Warn("failed to reload subscription after first delivery",
			"subscription_id", sub.ID(),
			"order_id", order.ID,
			"error", err,
		)
		return result, nil
	}
	if reloaded != nil {
		result.Subscription = reloaded
	}
	return result, nil
}

func parseNewSubscription(cmd CreateSubscriptionCommand) (domain.NewSubscriptionParams, error) {
	if err := identityDomain.ValidateUserID(cmd.UserID); err != nil {
		return domain.NewSubscriptionParams{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	typ, err := domain.ParseSubscriptionType(cmd.Type)
	if err != nil {
		return domain.NewSubscriptionParams{}, err
	}
	deliveryType := deliveryDomain.TypeStandard
	if cmd.DeliveryType != "" {
		if deliveryType, err = deliveryDomain.ParseType(cmd.DeliveryType); err != nil {
			return domain.NewSubscriptionParams{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}
	address, err := domain.NewAddressSnapshot(cmd.Address)
	if err != nil {
		return domain.NewSubscriptionParams{}, err
	}
	items, err := domain.NewItems(cmd.Items)
	if err != nil {
		return domain.NewSubscriptionParams{}, err
	}
	return domain.NewSubscriptionParams{
		OwnerID:       cmd.UserID,
		Type:          typ,
		Address:       address,
		DeliveryType:  deliveryType,
		DeliveryNotes: cmd.DeliveryNotes,
		Items:         items,
	}, nil
}
