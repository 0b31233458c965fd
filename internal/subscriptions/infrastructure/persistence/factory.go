package persistence

import (
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// NewSubscriptionRepository returns the repository for conn's backend.
func NewSubscriptionRepository(conn database.Connection) domain.Repository {
	if conn.Driver() == database.DriverSQLite {
		return NewSQLiteSubscriptionRepository(conn)
	}
	return NewPostgresSubscriptionRepository(conn)
}
