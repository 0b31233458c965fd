// Package migrations applies the embedded goose migrations for the active backend.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// Status is the applied state of one migration file.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

func newProvider(conn database.Connection) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch conn.Driver() {
	case database.DriverPostgres:
		dialect, dir = goose.DialectPostgres, "postgres"
	case database.DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite"
	default:
		return nil, fmt.Errorf("no migrations for driver %s", conn.Driver())
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s migrations: %w", dir, err)
	}
	return goose.NewProvider(dialect, conn.SQLDB(), sub)
}

// Up applies every pending migration and returns how many ran.
func Up(ctx context.Context, conn database.Connection) (int, error) {
	provider, err := newProvider(conn)
	if err != nil {
		return 0, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("failed to apply migrations: %w", err)
	}
	return len(results), nil
}

// List reports every known migration and whether it has been applied.
func List(ctx context.Context, conn database.Connection) ([]Status, error) {
	provider, err := newProvider(conn)
	if err != nil {
		return nil, err
	}
	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
