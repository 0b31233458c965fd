// Package persistence stores catalog products.
package persistence

import (
	"github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
)

// NewProductRepository returns the repository for conn's backend.
func NewProductRepository(conn database.Connection) domain.ProductRepository {
	if conn.Driver() == database.DriverSQLite {
		return NewSQLiteProductRepository(conn)
	}
	return NewPostgresProductRepository(conn)
}
