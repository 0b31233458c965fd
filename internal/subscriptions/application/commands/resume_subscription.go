package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	subApplication "github.com/xl-c111/Flora-sub001/internal/subscriptions/application"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// ResumeSubscriptionCommand contains the data needed to resume a subscription.
type ResumeSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
}

// ResumeSubscriptionHandler handles the ResumeSubscriptionCommand.
type ResumeSubscriptionHandler struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	policy  *domain.SchedulePolicy
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewResumeSubscriptionHandler creates a new ResumeSubscriptionHandler.
func NewResumeSubscriptionHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, policy *domain.SchedulePolicy, clock sharedDomain.Clock, metrics observability.Metrics, logger *slog.Logger) *ResumeSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeSubscriptionHandler{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		policy:  policy,
		clock:   sharedDomain.ClockOrSystem(clock),
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// Handle executes the ResumeSubscriptionCommand. The next delivery date is
// recomputed from now, also when the subscription was already active.
func (h *ResumeSubscriptionHandler) Handle(ctx context.Context, cmd ResumeSubscriptionCommand) (*domain.Subscription, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		sub, err := loadOwned(txCtx, h.repo, cmd.SubscriptionID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if err := sub.Resume(h.policy, h.clock.Now()); err != nil {
			return nil, err
		}
		if err := h.repo.Save(txCtx, sub); err != nil {
			return nil, err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, h.outbox, cmd.UserID, sub); err != nil {
			return nil, err
		}
		h.metrics.Counter(observability.MetricSubscriptionTransition, 1, observability.T("to", string(domain.StatusActive)))
		h.logger.Info("subscription resumed",
			"subscription_id", sub.ID(),
			"user_id", cmd.UserID,
			"next_delivery_date", sub.NextDeliveryDate(),
		)
		return sub, nil
	})
}
