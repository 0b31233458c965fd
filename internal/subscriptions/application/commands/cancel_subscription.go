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

// CancelSubscriptionCommand contains the data needed to cancel a subscription.
type CancelSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
}

// CancelSubscriptionHandler handles the CancelSubscriptionCommand.
type CancelSubscriptionHandler struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewCancelSubscriptionHandler creates a new CancelSubscriptionHandler.
func NewCancelSubscriptionHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock, metrics observability.Metrics, logger *slog.Logger) *CancelSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CancelSubscriptionHandler{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		clock:   sharedDomain.ClockOrSystem(clock),
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// Handle executes the CancelSubscriptionCommand.
func (h *CancelSubscriptionHandler) Handle(ctx context.Context, cmd CancelSubscriptionCommand) (*domain.Subscription, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		sub, err := loadOwned(txCtx, h.repo, cmd.SubscriptionID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if err := sub.Cancel(h.clock.Now()); err != nil {
			return nil, err
		}
		if err := h.repo.Save(txCtx, sub); err != nil {
			return nil, err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, h.outbox, cmd.UserID, sub); err != nil {
			return nil, err
		}
		h.metrics.Counter(observability.MetricSubscriptionTransition, 1, observability.T("to", string(domain.StatusCancelled)))
		h.logger.Info("subscription cancelled", "subscription_id", sub.ID(), "user_id", cmd.UserID)
		return sub, nil
	})
}
