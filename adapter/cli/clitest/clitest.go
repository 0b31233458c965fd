// Package clitest builds a CLI application over an in-memory database and
// runs cobra commands against it.
package clitest

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	internalApp "github.com/xl-c111/Flora-sub001/internal/app"
	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/pkg/config"
)

// UserID is the operator every test app acts as.
const UserID = "00000000-0000-0000-0000-000000000001"

// Config returns a local configuration over a private in-memory database.
func Config() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		LogLevel:            "error",
		UserID:              UserID,
		DatabaseURL:         ":memory:",
		EventBus:            config.EventBusNoop,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxRetries:    3,
		ScanInterval:        time.Hour,
		ScanConcurrency:     2,
		ScanLockTTL:         time.Minute,
		DeliveryFeeStandard: 899,
		DeliveryFeeExpress:  1599,
		DeliveryFeeSameDay:  2499,
	}
}

// NewApp installs a CLI app as the global instance for the duration of the test.
func NewApp(t *testing.T, clock *sharedDomain.FixedClock) (*cli.App, *internalApp.Container) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	container, err := internalApp.NewContainer(context.Background(), Config(), logger,
		internalApp.WithClock(clock),
		internalApp.WithRandom(firstDay{}),
	)
	require.NoError(t, err)

	app, err := cli.NewApp(container)
	require.NoError(t, err)

	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		_ = container.Close()
	})
	return app, container
}

// firstDay always picks the first day of a spontaneous window.
type firstDay struct{}

func (firstDay) IntN(int) int { return 0 }

// SeedProduct stores a product and returns it.
func SeedProduct(t *testing.T, c *internalApp.Container, name string, price int64, stock int) *catalogDomain.Product {
	t.Helper()
	p, err := catalogDomain.NewProduct(name, price, stock, c.Clock.Now())
	require.NoError(t, err)
	require.NoError(t, c.ProductRepo.Save(context.Background(), p))
	return p
}

// Execute runs cmd with args after resetting every flag below it, and returns
// what it printed.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	resetFlags(cmd)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
