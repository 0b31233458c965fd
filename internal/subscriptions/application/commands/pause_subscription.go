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

// PauseSubscriptionCommand contains the data needed to pause a subscription.
type PauseSubscriptionCommand struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
}

// PauseSubscriptionHandler handles the PauseSubscriptionCommand.
type PauseSubscriptionHandler struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewPauseSubscriptionHandler creates a new PauseSubscriptionHandler.
func NewPauseSubscriptionHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock, metrics observability.Metrics, logger *slog.Logger) *PauseSubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PauseSubscriptionHandler{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		clock:   sharedDomain.ClockOrSystem(clock),
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// Handle executes the PauseSubscriptionCommand. Pausing a paused
// subscription succeeds without writing anything.
func (h *PauseSubscriptionHandler) Handle(ctx context.Context, cmd PauseSubscriptionCommand) (*domain.Subscription, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.Subscription, error) {
		sub, err := loadOwned(txCtx, h.repo, cmd.SubscriptionID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		changed, err := sub.Pause(h.clock.Now())
		if err != nil {
			return nil, err
		}
		if !changed {
			return sub, nil
		}
		if err := h.repo.Save(txCtx, sub); err != nil {
			return nil, err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, h.outbox, cmd.UserID, sub); err != nil {
			return nil, err
		}
		h.metrics.Counter(observability.MetricSubscriptionTransition, 1, observability.T("to", string(domain.StatusPaused)))
		h.logger.Info("subscription paused", "subscription_id", sub.ID(), "user_id", cmd.UserID)
		return sub, nil
	})
}
