package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// PostgresSubscriptionRepository implements domain.Repository for PostgreSQL.
type PostgresSubscriptionRepository struct {
	conn database.Connection
}

// NewPostgresSubscriptionRepository creates a new repository.
func NewPostgresSubscriptionRepository(conn database.Connection) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{conn: conn}
}

func (r *PostgresSubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	const upsert = `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			next_delivery_date = EXCLUDED.next_delivery_date,
			last_delivery_date = EXCLUDED.last_delivery_date,
			delivery_type = EXCLUDED.delivery_type,
			delivery_notes = EXCLUDED.delivery_notes,
			payment_subscription_ref = EXCLUDED.payment_subscription_ref,
			version = subscriptions.version + 1,
			updated_at = EXCLUDED.updated_at
	`
	ex := database.ExecutorFromContext(ctx, r.conn)

	args := []any{
		s.ID(), s.OwnerID(), string(s.Type()), string(s.Status()), s.NextDeliveryDate(), s.LastDeliveryDate(),
		string(s.DeliveryType()), s.DeliveryNotes(), s.PaymentSubscriptionRef(),
	}
	args = append(args, addressArgs(s.Address())...)
	args = append(args, s.Version(), s.CreatedAt(), s.UpdatedAt())
	if _, err := ex.Exec(ctx, upsert, args...); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	if _, err := ex.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, s.ID()); err != nil {
		return fmt.Errorf("failed to clear subscription items: %w", err)
	}
	for i, item := range s.Items() {
		if _, err := ex.Exec(ctx,
			`INSERT INTO subscription_items (subscription_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			s.ID(), i, item.ProductID(), item.Quantity(),
		); err != nil {
			return fmt.Errorf("failed to save subscription item: %w", err)
		}
	}
	return nil
}

func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

func (r *PostgresSubscriptionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresSubscriptionRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	return r.findMany(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC, id`,
		ownerID)
}

func (r *PostgresSubscriptionRepository) FindDue(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	return r.findMany(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = $1 AND next_delivery_date <= $2
		ORDER BY next_delivery_date, id`,
		string(domain.StatusActive), asOf)
}

func (r *PostgresSubscriptionRepository) UpdateSchedule(ctx context.Context, s *domain.Subscription) error {
	const query = `
		UPDATE subscriptions
		SET next_delivery_date = $2, last_delivery_date = $3, updated_at = $4, version = version + 1
		WHERE id = $1
	`
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		s.ID(), s.NextDeliveryDate(), s.LastDeliveryDate(), s.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update subscription schedule: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, s.ID())
	}
	return nil
}

func (r *PostgresSubscriptionRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Subscription, error) {
	ex := database.ExecutorFromContext(ctx, r.conn)
	rec, err := scanPostgresRecord(ex.QueryRow(ctx, query, args...))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	items, err := r.loadItems(ctx, []uuid.UUID{rec.id})
	if err != nil {
		return nil, err
	}
	return assemble([]record{rec}, items)[0], nil
}

func (r *PostgresSubscriptionRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	var records []record
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		records = append(records, rec)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*domain.Subscription{}, nil
	}

	items, err := r.loadItems(ctx, recordIDs(records))
	if err != nil {
		return nil, err
	}
	return assemble(records, items), nil
}

func (r *PostgresSubscriptionRepository) loadItems(ctx context.Context, ids []uuid.UUID) ([]itemRow, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT subscription_id, product_id, quantity FROM subscription_items
		WHERE subscription_id = ANY($1::uuid[])
		ORDER BY subscription_id, position`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription items: %w", err)
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		var it itemRow
		if err := rows.Scan(&it.subscriptionID, &it.productID, &it.quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanPostgresRecord(row database.Row) (record, error) {
	var rec record
	a := &rec.address
	err := row.Scan(
		&rec.id, &rec.userID, &rec.typ, &rec.status, &rec.next, &rec.last, &rec.deliveryType,
		&rec.notes, &rec.paymentRef,
		&a.FirstName, &a.LastName, &a.Street1, &a.Street2, &a.City, &a.State, &a.ZipCode, &a.Phone,
		&rec.version, &rec.createdAt, &rec.updatedAt,
	)
	return rec, err
}
