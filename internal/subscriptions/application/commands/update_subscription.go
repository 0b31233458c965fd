package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	subApplication "github.com/xl-c111/Flora-sub001/internal/subscriptions/application"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// UpdateSubscriptionCommand changes the owner-editable fields. Nil fields are
// left alone.
type UpdateSubscriptionCommand struct {
	SubscriptionID         uuid.UUID
	UserID                 uuid.UUID
	Type                   *string
	Status                 *string
	DeliveryType           *string
	DeliveryNotes          *string
	PaymentSubscriptionRef *string
}

// UpdateSubscriptionHandler handles the UpdateSubscriptionCommand.
type UpdateSubscriptionHandler struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	policy  *domain.SchedulePolicy
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewUpdateSubscriptionHandler creates a new UpdateSubscriptionHandler.
func NewUpdateSubscriptionHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, policy *domain.SchedulePolicy, clock sharedDomain.Clock, metrics observability.Metrics, logger *slog.Logger) *UpdateSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateSubscriptionHandler{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		policy:  policy,
		clock:   sharedDomain.ClockOrSystem(clock),
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// Handle executes the UpdateSubscriptionCommand. A type change keeps the
// current next delivery date; the new cadence applies from the next reschedule.
func (h *UpdateSubscriptionHandler) Handle(ctx context.Context, cmd UpdateSubscriptionCommand) (*domain.Subscription, error) {
	patch, err := parsePatch(cmd)
	if err != nil {
		return nil, err
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		sub, err := loadOwned(txCtx, h.repo, cmd.SubscriptionID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		before := sub.Status()
		if err := sub.Apply(patch, h.policy, h.clock.Now()); err != nil {
			return nil, err
		}
		if len(sub.DomainEvents()) == 0 {
			return sub, nil
		}
		if err := h.repo.Save(txCtx, sub); err != nil {
			return nil, err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, h.outbox, cmd.UserID, sub); err != nil {
			return nil, err
		}
		if sub.Status() != before {
			h.metrics.Counter(observability.MetricSubscriptionTransition, 1, observability.T("to", string(sub.Status())))
		}
		h.logger.Info("subscription updated", "subscription_id", sub.ID(), "user_id", cmd.UserID)
		return sub, nil
	})
}

func parsePatch(cmd UpdateSubscriptionCommand) (domain.Patch, error) {
	var patch domain.Patch
	if cmd.Type != nil {
		t, err := domain.ParseSubscriptionType(*cmd.Type)
		if err != nil {
			return patch, err
		}
		patch.Type = &t
	}
	if cmd.Status != nil {
		s, err := domain.ParseStatus(*cmd.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	}
	if cmd.DeliveryType != nil {
		d, err := deliveryDomain.ParseType(*cmd.DeliveryType)
		if err != nil {
			return patch, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		patch.DeliveryType = &d
	}
	patch.DeliveryNotes = cmd.DeliveryNotes
	patch.PaymentSubscriptionRef = cmd.PaymentSubscriptionRef
	return patch, nil
}
