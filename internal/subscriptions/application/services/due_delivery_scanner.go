package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
	subApplication "github.com/xl-c111/Flora-sub001/internal/subscriptions/application"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// ScheduledOrderDeriver is the part of OrderDerivationEngine the scanner uses.
type ScheduledOrderDeriver interface {
	DeriveScheduledOrder(ctx context.Context, sub *domain.Subscription) (*orderingDomain.Order, error)
}

// ScannerConfig tunes DueDeliveryScanner.
type ScannerConfig struct {
	// Concurrency bounds how many subscriptions are processed at once.
	Concurrency int
}

// DefaultScannerConfig returns the default configuration.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{Concurrency: 4}
}

// ScanReport summarizes one scan.
type ScanReport struct {
	AsOf             time.Time     `json:"as_of"`
	Due              int           `json:"due"`
	Delivered        int           `json:"delivered"`
	Failed           int           `json:"failed"`
	Rescheduled      int           `json:"rescheduled"`
	RescheduleFailed int           `json:"reschedule_failed"`
	Skipped          int           `json:"skipped"`
	Duration         time.Duration `json:"duration_ns"`
}

// DueDeliveryScanner delivers every ACTIVE subscription whose next delivery
// date has arrived, then moves each one to its next slot whether or not the
// order could be created.
type DueDeliveryScanner struct {
	repo    domain.Repository
	outbox  outbox.Repository
	uow     sharedApplication.UnitOfWork
	deriver ScheduledOrderDeriver
	policy  *domain.SchedulePolicy
	config  ScannerConfig
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewDueDeliveryScanner creates a scanner.
func NewDueDeliveryScanner(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	deriver ScheduledOrderDeriver,
	policy *domain.SchedulePolicy,
	config ScannerConfig,
	metrics observability.Metrics,
	logger *slog.Logger,
) *DueDeliveryScanner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &DueDeliveryScanner{
		repo:    repo,
		outbox:  outboxRepo,
		uow:     uow,
		deriver: deriver,
		policy:  policy,
		config:  config,
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// ProcessDueDeliveries runs one scan as of today. Per-subscription failures
// are counted in the report; only failing to load the due set is an error.
func (s *DueDeliveryScanner) ProcessDueDeliveries(ctx context.Context, today time.Time) (ScanReport, error) {
	start := time.Now()
	today = today.UTC()
	report := ScanReport{AsOf: today}

	due, err := s.repo.FindDue(ctx, today)
	if err != nil {
		return report, fmt.Errorf("failed to load due subscriptions: %w", err)
	}
	report.Due = len(due)

	var mu sync.Mutex
	tally := func(fn func(r *ScanReport)) {
		mu.Lock()
		defer mu.Unlock()
		fn(&report)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, sub := range due {
		g.Go(func() error {
			s.process(gctx, sub, today, tally)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	s.publish(report)
	return report, nil
}

// process re-reads the subscription before deriving its order, so a pause or
// cancel that landed after FindDue is honoured.
func (s *DueDeliveryScanner) process(ctx context.Context, snapshot *domain.Subscription, today time.Time, tally func(func(*ScanReport))) {
	sub, err := s.repo.FindByID(ctx, snapshot.ID())
	if err != nil {
		s.logger.Error("failed to reload due subscription",
			"subscription_id", snapshot.ID(),
			"error", err,
		)
		tally(func(r *ScanReport) { r.Failed++ })
		return
	}
	if sub == nil || !sub.IsDue(today) {
		s.logger.Debug("subscription no longer due", "subscription_id", snapshot.ID())
		tally(func(r *ScanReport) { r.Skipped++ })
		return
	}

	if _, err := s.deriver.DeriveScheduledOrder(ctx, sub); err != nil {
		tally(func(r *ScanReport) { r.Failed++ })
	} else {
		tally(func(r *ScanReport) { r.Delivered++ })
	}

	rescheduled, err := s.reschedule(ctx, sub, today)
	switch {
	case err != nil:
		s.logger.Error("failed to reschedule subscription",
			"subscription_id", sub.ID(),
			"error", err,
		)
		tally(func(r *ScanReport) { r.RescheduleFailed++ })
	case rescheduled:
		tally(func(r *ScanReport) { r.Rescheduled++ })
	default:
		tally(func(r *ScanReport) { r.Skipped++ })
	}
}

// reschedule re-reads the row under lock and only advances it while it is
// still ACTIVE and due. A concurrent pause, cancel or reschedule wins.
func (s *DueDeliveryScanner) reschedule(ctx context.Context, sub *domain.Subscription, today time.Time) (bool, error) {
	rescheduled := false
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		locked, err := s.repo.FindByIDForUpdate(txCtx, sub.ID())
		if err != nil {
			return err
		}
		if locked == nil || !locked.IsDue(today) {
			return nil
		}
		next, err := locked.Reschedule(s.policy, today)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateSchedule(txCtx, locked); err != nil {
			return err
		}
		if err := subApplication.RecordAggregateEvents(txCtx, s.outbox, locked.OwnerID(), locked); err != nil {
			return err
		}
		s.logger.Debug("subscription rescheduled", "subscription_id", locked.ID(), "next_delivery_date", next)
		rescheduled = true
		return nil
	})
	return rescheduled, err
}

func (s *DueDeliveryScanner) publish(r ScanReport) {
	s.metrics.Gauge(observability.MetricScanDue, float64(r.Due))
	s.metrics.Counter(observability.MetricReschedules, int64(r.Rescheduled))
	s.metrics.Counter(observability.MetricRescheduleFailures, int64(r.RescheduleFailed))
	s.metrics.Timing(observability.MetricScanDuration, r.Duration)

	s.logger.Info("due delivery scan completed",
		"as_of", r.AsOf,
		"due", r.Due,
		"delivered", r.Delivered,
		"failed", r.Failed,
		"rescheduled", r.Rescheduled,
		"reschedule_failed", r.RescheduleFailed,
		"skipped", r.Skipped,
		"duration", r.Duration,
	)
}

// EndOfDay returns the last instant of t's UTC calendar day, for scans
// requested by date rather than by instant.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
}
