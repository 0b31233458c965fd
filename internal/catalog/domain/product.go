// Package domain is the engine's view of the product catalog: prices and stock.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrProductNotFound is returned when a product id is not in the catalog.
var ErrProductNotFound = errors.New("product not found")

// ErrInvalidProduct is returned for products that cannot be stored.
var ErrInvalidProduct = errors.New("invalid product")

// Product is a catalog entry. PriceCents is in minor currency units.
type Product struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewProduct validates and creates a product.
func NewProduct(name string, priceCents int64, stock int, now time.Time) (*Product, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case priceCents < 0:
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case stock < 0:
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return &Product{ID: uuid.New(), Name: name, PriceCents: priceCents, Stock: stock, CreatedAt: now.UTC()}, nil
}

// PriceLookup resolves current unit prices.
type PriceLookup interface {
	// PriceOf returns the unit price, or an error wrapping ErrProductNotFound.
	PriceOf(ctx context.Context, productID uuid.UUID) (int64, error)
	// PricesOf resolves several products at once. Missing ids are an ErrProductNotFound error.
	PricesOf(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

// ProductRepository stores catalog entries.
type ProductRepository interface {
	PriceLookup
	Save(ctx context.Context, p *Product) error
	List(ctx context.Context) ([]*Product, error)
}

// MissingProducts returns the ids absent from prices, for PricesOf implementations.
func MissingProducts(ids []uuid.UUID, prices map[uuid.UUID]int64) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// NotFound builds the error for a set of missing ids.
func NotFound(ids []uuid.UUID) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return fmt.Errorf("%w: %s", ErrProductNotFound, strings.Join(parts, ", "))
}
