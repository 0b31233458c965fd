package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/adapter/cli/delivery"
	"github.com/xl-c111/Flora-sub001/adapter/cli/migrate"
	"github.com/xl-c111/Flora-sub001/adapter/cli/product"
	"github.com/xl-c111/Flora-sub001/adapter/cli/scan"
	"github.com/xl-c111/Flora-sub001/adapter/cli/subscription"
	"github.com/xl-c111/Flora-sub001/internal/app"
	"github.com/xl-c111/Flora-sub001/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// Invalid settings should not block `flora version` or `flora --help`.
		cfg = &config.Config{AppEnv: "development", LogLevel: "info", EventBus: config.EventBusNoop}
	}
	logger := app.NewLogger(cfg, "flora", cli.Version, os.Stderr)
	if err != nil {
		logger.Warn("failed to load config, using development defaults", "error", err)
	}
	cli.SetLogger(logger)

	var container *app.Container
	container, err = app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need the database report ErrNotInitialized.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer func() { _ = container.Close() }()

		cliApp, err := cli.NewApp(container)
		if err != nil {
			logger.Error("failed to initialize CLI", "error", err)
			os.Exit(1)
		}
		cli.SetApp(cliApp)
	}

	cli.AddCommand(subscription.Cmd)
	cli.AddCommand(scan.Cmd)
	cli.AddCommand(delivery.Cmd)
	cli.AddCommand(product.Cmd)
	cli.AddCommand(migrate.Cmd)

	cli.Execute(ctx)

	// Publish whatever the command recorded before the process exits.
	if container != nil {
		if err := container.OutboxProcessor.ProcessOnce(ctx); err != nil {
			logger.Warn("failed to publish recorded events", "error", err)
		}
	}
}
