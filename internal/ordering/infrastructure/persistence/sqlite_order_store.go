package persistence

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
)

type sqliteDialect struct{}

func (sqliteDialect) reserveStock(ctx context.Context, ex database.Executor, line domain.OrderLine) (bool, error) {
	result, err := ex.Exec(ctx,
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		line.Quantity, line.ProductID.String(), line.Quantity,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (sqliteDialect) productExists(ctx context.Context, ex database.Executor, productID uuid.UUID) (bool, error) {
	var n int
	err := ex.QueryRow(ctx, `SELECT COUNT(1) FROM products WHERE id = ?`, productID.String()).Scan(&n)
	return n > 0, err
}

func (sqliteDialect) insertOrder(ctx context.Context, ex database.Executor, o *domain.Order) error {
	const insertOrder = `
		INSERT INTO orders (
			id, subscription_id, user_id, purchase_type, status, delivery_type, delivery_fee,
			subtotal, total, delivery_notes, requested_delivery_date,
			first_name, last_name, street1, street2, city, state, zip_code, phone, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var subID sql.NullString
	if o.SubscriptionID != nil {
		subID = sql.NullString{String: o.SubscriptionID.String(), Valid: true}
	}
	a := o.Address
	if _, err := ex.Exec(ctx, insertOrder,
		o.ID.String(), subID, o.UserID.String(), string(o.PurchaseType), string(o.Status), o.DeliveryType, o.DeliveryFee,
		o.Subtotal(), o.Total(), o.DeliveryNotes, sqlite.FormatNullTime(o.RequestedDeliveryDate),
		a.FirstName, a.LastName, a.Street1, a.Street2, a.City, a.State, a.ZipCode, a.Phone, sqlite.FormatTime(o.CreatedAt),
	); err != nil {
		return err
	}

	for i, line := range o.Items {
		if _, err := ex.Exec(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`,
			o.ID.String(), i, line.ProductID.String(), line.Quantity, line.UnitPrice,
		); err != nil {
			return err
		}
	}
	return nil
}

func (sqliteDialect) listBySubscription(ctx context.Context, ex database.Executor, subscriptionID uuid.UUID) ([]*domain.Order, error) {
	const query = `
		SELECT o.id, o.subscription_id, o.user_id, o.purchase_type, o.status, o.delivery_type,
			o.delivery_fee, o.delivery_notes, o.requested_delivery_date,
			o.first_name, o.last_name, o.street1, o.street2, o.city, o.state, o.zip_code, o.phone,
			o.created_at, i.product_id, i.quantity, i.unit_price
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.subscription_id = ?
		ORDER BY o.created_at DESC, o.id, i.position
	`
	rows, err := ex.Query(ctx, query, subscriptionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			o                     domain.Order
			id, userID, productID string
			subID, requested      sql.NullString
			purchaseType, status  string
			createdAt             string
			line                  domain.OrderLine
		)
		a := &o.Address
		if err := rows.Scan(
			&id, &subID, &userID, &purchaseType, &status, &o.DeliveryType,
			&o.DeliveryFee, &o.DeliveryNotes, &requested,
			&a.FirstName, &a.LastName, &a.Street1, &a.Street2, &a.City, &a.State, &a.ZipCode, &a.Phone,
			&createdAt, &productID, &line.Quantity, &line.UnitPrice,
		); err != nil {
			return nil, err
		}

		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if o.UserID, err = uuid.Parse(userID); err != nil {
			return nil, err
		}
		if line.ProductID, err = uuid.Parse(productID); err != nil {
			return nil, err
		}
		if subID.Valid {
			sid, err := uuid.Parse(subID.String)
			if err != nil {
				return nil, err
			}
			o.SubscriptionID = &sid
		}
		if o.RequestedDeliveryDate, err = sqlite.ParseNullTime(requested); err != nil {
			return nil, err
		}
		if o.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
			return nil, err
		}
		o.PurchaseType = domain.PurchaseType(purchaseType)
		o.Status = domain.Status(status)
		orders = appendLine(orders, &o, line)
	}
	return orders, rows.Err()
}
