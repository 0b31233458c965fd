package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// SQLiteSubscriptionRepository implements domain.Repository for SQLite.
// The connection pool holds a single connection, so a transaction already
// serializes writers and FindByIDForUpdate needs no row lock clause.
type SQLiteSubscriptionRepository struct {
	conn database.Connection
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(conn database.Connection) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{conn: conn}
}

func (r *SQLiteSubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	const upsert = `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type,
			status = excluded.status,
			next_delivery_date = excluded.next_delivery_date,
			last_delivery_date = excluded.last_delivery_date,
			delivery_type = excluded.delivery_type,
			delivery_notes = excluded.delivery_notes,
			payment_subscription_ref = excluded.payment_subscription_ref,
			version = subscriptions.version + 1,
			updated_at = excluded.updated_at
	`
	ex := database.ExecutorFromContext(ctx, r.conn)

	args := []any{
		s.ID().String(), s.OwnerID().String(), string(s.Type()), string(s.Status()),
		sqlite.FormatNullTime(s.NextDeliveryDate()), sqlite.FormatNullTime(s.LastDeliveryDate()),
		string(s.DeliveryType()), s.DeliveryNotes(), s.PaymentSubscriptionRef(),
	}
	args = append(args, addressArgs(s.Address())...)
	args = append(args, s.Version(), sqlite.FormatTime(s.CreatedAt()), sqlite.FormatTime(s.UpdatedAt()))
	if _, err := ex.Exec(ctx, upsert, args...); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	if _, err := ex.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = ?`, s.ID().String()); err != nil {
		return fmt.Errorf("failed to clear subscription items: %w", err)
	}
	for i, item := range s.Items() {
		if _, err := ex.Exec(ctx,
			`INSERT INTO subscription_items (subscription_id, position, product_id, quantity) VALUES (?, ?, ?, ?)`,
			s.ID().String(), i, item.ProductID().String(), item.Quantity(),
		); err != nil {
			return fmt.Errorf("failed to save subscription item: %w", err)
		}
	}
	return nil
}

func (r *SQLiteSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, id)
}

func (r *SQLiteSubscriptionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, id)
}

func (r *SQLiteSubscriptionRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	return r.findMany(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC, id`,
		ownerID.String())
}

func (r *SQLiteSubscriptionRepository) FindDue(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	return r.findMany(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = ? AND next_delivery_date IS NOT NULL AND next_delivery_date <= ?
		ORDER BY next_delivery_date, id`,
		string(domain.StatusActive), sqlite.FormatTime(asOf))
}

func (r *SQLiteSubscriptionRepository) UpdateSchedule(ctx context.Context, s *domain.Subscription) error {
	const query = `
		UPDATE subscriptions
		SET next_delivery_date = ?, last_delivery_date = ?, updated_at = ?, version = version + 1
		WHERE id = ?
	`
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		sqlite.FormatNullTime(s.NextDeliveryDate()), sqlite.FormatNullTime(s.LastDeliveryDate()),
		sqlite.FormatTime(s.UpdatedAt()), s.ID().String())
	if err != nil {
		return fmt.Errorf("failed to update subscription schedule: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, s.ID())
	}
	return nil
}

func (r *SQLiteSubscriptionRepository) findOne(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	ex := database.ExecutorFromContext(ctx, r.conn)
	rec, err := scanSQLiteRecord(ex.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id.String()))
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

// findMany drains the result set before loading items: the single pooled
// connection cannot serve a second query while rows are open.
func (r *SQLiteSubscriptionRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	var records []record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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

func (r *SQLiteSubscriptionRepository) loadItems(ctx context.Context, ids []uuid.UUID) ([]itemRow, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT subscription_id, product_id, quantity FROM subscription_items
		WHERE subscription_id IN (`+database.Placeholders(len(args))+`)
		ORDER BY subscription_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription items: %w", err)
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		var (
			subID, productID string
			it               itemRow
		)
		if err := rows.Scan(&subID, &productID, &it.quantity); err != nil {
			return nil, err
		}
		if it.subscriptionID, err = uuid.Parse(subID); err != nil {
			return nil, err
		}
		if it.productID, err = uuid.Parse(productID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanSQLiteRecord(row database.Row) (record, error) {
	var (
		rec                  record
		id, userID           string
		next, last           sql.NullString
		createdAt, updatedAt string
	)
	a := &rec.address
	if err := row.Scan(
		&id, &userID, &rec.typ, &rec.status, &next, &last, &rec.deliveryType,
		&rec.notes, &rec.paymentRef,
		&a.FirstName, &a.LastName, &a.Street1, &a.Street2, &a.City, &a.State, &a.ZipCode, &a.Phone,
		&rec.version, &createdAt, &updatedAt,
	); err != nil {
		return rec, err
	}

	var err error
	if rec.id, err = uuid.Parse(id); err != nil {
		return rec, err
	}
	if rec.userID, err = uuid.Parse(userID); err != nil {
		return rec, err
	}
	if rec.next, err = sqlite.ParseNullTime(next); err != nil {
		return rec, err
	}
	if rec.last, err = sqlite.ParseNullTime(last); err != nil {
		return rec, err
	}
	if rec.createdAt, err = sqlite.ParseTime(createdAt); err != nil {
		return rec, err
	}
	rec.updatedAt, err = sqlite.ParseTime(updatedAt)
	return rec, err
}
