// Package persistence upserts users in the application database.
package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/identity/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
)

// UserDirectory implements domain.UserEnsurer for both backends.
type UserDirectory struct {
	conn  database.Connection
	clock sharedDomain.Clock
}

// NewUserDirectory creates a directory on conn.
func NewUserDirectory(conn database.Connection, clock sharedDomain.Clock) *UserDirectory {
	return &UserDirectory{conn: conn, clock: sharedDomain.ClockOrSystem(clock)}
}

// EnsureExists inserts the user unless a row already exists.
func (d *UserDirectory) EnsureExists(ctx context.Context, userID uuid.UUID) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}

	ex := database.ExecutorFromContext(ctx, d.conn)
	var err error
	if d.conn.Driver() == database.DriverSQLite {
		_, err = ex.Exec(ctx,
			`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			userID.String(), sqlite.FormatTime(d.clock.Now()))
	} else {
		_, err = ex.Exec(ctx,
			`INSERT INTO users (id, created_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			userID, d.clock.Now())
	}
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}
