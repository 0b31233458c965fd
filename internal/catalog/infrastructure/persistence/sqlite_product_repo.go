package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
)

// SQLiteProductRepository implements domain.ProductRepository for SQLite.
type SQLiteProductRepository struct {
	conn database.Connection
}

// NewSQLiteProductRepository creates a new repository.
func NewSQLiteProductRepository(conn database.Connection) *SQLiteProductRepository {
	return &SQLiteProductRepository{conn: conn}
}

func (r *SQLiteProductRepository) Save(ctx context.Context, p *domain.Product) error {
	const query = `
		INSERT INTO products (id, name, price_cents, stock, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			price_cents = excluded.price_cents,
			stock = excluded.stock
	`
	ex := database.ExecutorFromContext(ctx, r.conn)
	if _, err := ex.Exec(ctx, query, p.ID.String(), p.Name, p.PriceCents, p.Stock, sqlite.FormatTime(p.CreatedAt)); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepository) PriceOf(ctx context.Context, productID uuid.UUID) (int64, error) {
	var price int64
	err := database.ExecutorFromContext(ctx, r.conn).
		QueryRow(ctx, `SELECT price_cents FROM products WHERE id = ?`, productID.String()).
		Scan(&price)
	if database.IsNoRows(err) {
		return 0, domain.NotFound([]uuid.UUID{productID})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up price: %w", err)
	}
	return price, nil
}

func (r *SQLiteProductRepository) PricesOf(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		args[i] = id.String()
	}

	query := `SELECT id, price_cents FROM products WHERE id IN (` + database.Placeholders(len(args)) + `)`
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[uuid.UUID]int64, len(productIDs))
	for rows.Next() {
		var (
			raw   string
			price int64
		)
		if err := rows.Scan(&raw, &price); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
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

func (r *SQLiteProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT id, name, price_cents, stock, created_at FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var (
			p             domain.Product
			id, createdAt string
		)
		if err := rows.Scan(&id, &p.Name, &p.PriceCents, &p.Stock, &createdAt); err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
