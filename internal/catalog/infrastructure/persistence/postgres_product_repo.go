package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
)

// PostgresProductRepository implements domain.ProductRepository for PostgreSQL.
type PostgresProductRepository struct {
	conn database.Connection
}

// NewPostgresProductRepository creates a new repository.
func NewPostgresProductRepository(conn database.Connection) *PostgresProductRepository {
	return &PostgresProductRepository{conn: conn}
}

func (r *PostgresProductRepository) Save(ctx context.Context, p *domain.Product) error {
	const query = `
		INSERT INTO products (id, name, price_cents, stock, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price_cents = EXCLUDED.price_cents,
			stock = EXCLUDED.stock
	`
	ex := database.ExecutorFromContext(ctx, r.conn)
	if _, err := ex.Exec(ctx, query, p.ID, p.Name, p.PriceCents, p.Stock, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) PriceOf(ctx context.Context, productID uuid.UUID) (int64, error) {
	var price int64
	err := database.ExecutorFromContext(ctx, r.conn).
		QueryRow(ctx, `SELECT price_cents FROM products WHERE id = $1`, productID).
		Scan(&price)
	if database.IsNoRows(err) {
		return 0, domain.NotFound([]uuid.UUID{productID})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up price: %w", err)
	}
	return price, nil
}

// PricesOf resolves every id in one round trip with = ANY($1).
func (r *PostgresProductRepository) PricesOf(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT id, price_cents FROM products WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to look up prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[uuid.UUID]int64, len(productIDs))
	for rows.Next() {
		var (
			id    uuid.UUID
			price int64
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if missing := domain.MissingProducts(productIDs, prices); len(missing) > 0 {
		return nil, domain.NotFound(missing)
	}
	return prices, nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT id, name, price_cents, stock, created_at FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
