package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

type emptyInput struct{}

type scanRunInput struct {
	// Date scans the whole day (YYYY-MM-DD). Empty scans as of now.
	Date string `json:"date,omitempty"`
}

type versionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type coreTools struct {
	app *cli.App
}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	t := coreTools{app: deps.App}

	srv.Tool("flora.version").
		Description("Show the Flora version").
		Handler(t.version)

	srv.Tool("flora.health").
		Description("Check database, cache and order service health").
		Handler(t.health)

	srv.Tool("scan.run").
		Description("Deliver every active subscription whose next delivery date has arrived").
		Handler(t.scan)

	return nil
}

func (t coreTools) version(_ context.Context, _ emptyInput) (*versionOutput, error) {
	return &versionOutput{Version: cli.Version, Commit: cli.Commit}, nil
}

func (t coreTools) health(ctx context.Context, _ emptyInput) (*observability.OverallHealth, error) {
	if t.app.Health == nil {
		return nil, errNoDatabase
	}
	h := t.app.Health.Check(ctx)
	return &h, nil
}

func (t coreTools) scan(ctx context.Context, input scanRunInput) (*services.ScanReport, error) {
	if t.app.Scanner == nil {
		return nil, errNoDatabase
	}
	asOf := t.app.Today()
	day, err := parseOptionalDate(input.Date)
	if err != nil {
		return nil, err
	}
	if day != nil {
		asOf = services.EndOfDay(*day)
	}
	report, err := t.app.Scanner.ProcessDueDeliveries(ctx, asOf)
	if err != nil {
		return nil, cli.Explain(err)
	}
	return &report, nil
}
