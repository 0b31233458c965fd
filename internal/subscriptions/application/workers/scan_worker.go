package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/lock"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// DefaultScanInterval is the default interval between scans.
const DefaultScanInterval = time.Hour

// DefaultScanLockKey names the lease shared by every worker instance.
const DefaultScanLockKey = "subscriptions:due-delivery-scan"

// DueScanner runs one due-delivery scan.
type DueScanner interface {
	ProcessDueDeliveries(ctx context.Context, today time.Time) (services.ScanReport, error)
}

// ScanWorkerConfig configures the scan worker.
type ScanWorkerConfig struct {
	Interval time.Duration
	// LockTTL should exceed the longest expected scan.
	LockTTL    time.Duration
	LockKey    string
	RunOnStart bool
}

// DefaultScanWorkerConfig returns the default configuration.
func DefaultScanWorkerConfig() ScanWorkerConfig {
	return ScanWorkerConfig{
		Interval:   DefaultScanInterval,
		LockTTL:    15 * time.Minute,
		LockKey:    DefaultScanLockKey,
		RunOnStart: true,
	}
}

// ScanWorker periodically runs the due-delivery scanner. Each tick takes a
// lease first so that only one instance scans at a time.
type ScanWorker struct {
	scanner DueScanner
	locker  lock.Locker
	clock   sharedDomain.Clock
	config  ScanWorkerConfig
	metrics observability.Metrics
	logger  *slog.Logger

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewScanWorker creates a new scan worker.
func NewScanWorker(
	scanner DueScanner,
	locker lock.Locker,
	clock sharedDomain.Clock,
	config ScanWorkerConfig,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ScanWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultScanInterval
	}
	if config.LockKey == "" {
		config.LockKey = DefaultScanLockKey
	}
	return &ScanWorker{
		scanner: scanner,
		locker:  locker,
		clock:   sharedDomain.ClockOrSystem(clock),
		config:  config,
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Run starts the worker and blocks until the context is cancelled or Stop is called.
func (w *ScanWorker) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("scan worker started", "interval", w.config.Interval, "lock_ttl", w.config.LockTTL)

	if w.config.RunOnStart {
		w.RunOnce(ctx)
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scan worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("scan worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// Stop signals the worker to stop gracefully.
func (w *ScanWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// IsRunning returns true if the worker is currently running.
func (w *ScanWorker) IsRunning() bool {
	return w.running.Load()
}

// RunOnce scans as of now if the lease can be taken. It reports whether a
// scan ran.
func (w *ScanWorker) RunOnce(ctx context.Context) bool {
	if w.locker != nil {
		lease, ok, err := w.locker.TryAcquire(ctx, w.config.LockKey, w.config.LockTTL)
		if err != nil {
			w.logger.Error("failed to acquire scan lease", "key", w.config.LockKey, "error", err)
			w.metrics.Counter(observability.MetricScanSkipped, 1, observability.T("reason", "lock_error"))
			return false
		}
		if !ok {
			w.logger.Debug("scan lease held elsewhere, skipping tick", "key", w.config.LockKey)
			w.metrics.Counter(observability.MetricScanSkipped, 1, observability.T("reason", "lease_held"))
			return false
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				w.logger.Warn("failed to release scan lease", "key", w.config.LockKey, "error", err)
			}
		}()
	}

	if _, err := w.scanner.ProcessDueDeliveries(ctx, w.clock.Now()); err != nil {
		w.logger.Error("due delivery scan failed", "error", err)
	}
	return true
}
