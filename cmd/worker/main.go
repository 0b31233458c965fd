package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xl-c111/Flora-sub001/internal/app"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
	"github.com/xl-c111/Flora-sub001/pkg/config"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// Version is set during build
var Version = "dev"

const alertQueue = "flora.delivery-alerts"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, "flora-worker", Version, os.Stdout)
	logger.Info("starting flora worker", "event_bus", cfg.EventBus)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	if err := run(ctx, cfg, container, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, c *app.Container, logger *slog.Logger) error {
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return err
	}
	logger.Info("outbox processor started",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.ScanWorker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// With RabbitMQ the alert subscriber listens on its own queue; the
	// in-process bus already has it registered.
	if cfg.EventBus == config.EventBusRabbitMQ {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConfig{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
		}, alertQueue, logger)
		if err != nil {
			return err
		}
		consumer.RegisterConsumer(c.DeliveryAlert)
		g.Go(func() error {
			defer func() { _ = consumer.Close() }()
			err := consumer.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if cfg.HealthAddr != "" {
		srv := healthServer(cfg.HealthAddr, c.Health)
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.HealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		logStats(ctx, c, logger, cfg.ScanInterval)
		return nil
	})

	err := g.Wait()
	c.OutboxProcessor.Stop()
	return err
}

func healthServer(addr string, health *observability.HealthRegistry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/healthz", observability.LivenessHandler())
	mux.Handle("/readyz", health.ReadinessHandler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func logStats(ctx context.Context, c *app.Container, logger *slog.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.OutboxProcessor.GetStats()
			logger.Info("outbox stats",
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"last_error", stats.LastError,
			)
		}
	}
}
