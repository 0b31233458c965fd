package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
)

type postgresDialect struct{}

func (postgresDialect) reserveStock(ctx context.Context, ex database.Executor, line domain.OrderLine) (bool, error) {
	result, err := ex.Exec(ctx,
		`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
		line.Quantity, line.ProductID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (postgresDialect) productExists(ctx context.Context, ex database.Executor, productID uuid.UUID) (bool, error) {
	var exists bool
	err := ex.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}

func (postgresDialect) insertOrder(ctx context.Context, ex database.Executor, o *domain.Order) error {
	const insertOrder = `
		INSERT INTO orders (
			id, subscription_id, user_id, purchase_type, status, delivery_type, delivery_fee,
			subtotal, total, delivery_notes, requested_delivery_date,
			first_name, last_name, street1, street2, city, state, zip_code, phone, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	a := o.Address
	if _, err := ex.Exec(ctx, insertOrder,
		o.ID, o.SubscriptionID, o.UserID, string(o.PurchaseType), string(o.Status), o.DeliveryType, o.DeliveryFee,
		o.Subtotal(), o.Total(), o.DeliveryNotes, o.RequestedDeliveryDate,
		a.FirstName, a.LastName, a.Street1, a.Street2, a.City, a.State, a.ZipCode, a.Phone, o.CreatedAt,
	); err != nil {
		return err
	}

	for i, line := range o.Items {
		if _, err := ex.Exec(ctx,
			`INSERT INTO order_items (order_id, position, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, i, line.ProductID, line.Quantity, line.UnitPrice,
		); err != nil {
			return err
		}
	}
	return nil
}

func (postgresDialect) listBySubscription(ctx context.Context, ex database.Executor, subscriptionID uuid.UUID) ([]*domain.Order, error) {
	const query = `
		SELECT o.id, o.subscription_id, o.user_id, o.purchase_type, o.status, o.delivery_type,
			o.delivery_fee, o.delivery_notes, o.requested_delivery_date,
			o.first_name, o.last_name, o.street1, o.street2, o.city, o.state, o.zip_code, o.phone,
			o.created_at, i.product_id, i.quantity, i.unit_price
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.subscription_id = $1
		ORDER BY o.created_at DESC, o.id, i.position
	`
	rows, err := ex.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			o            domain.Order
			subID        *uuid.UUID
			purchaseType string
			status       string
			requested    *time.Time
			line         domain.OrderLine
		)
		a := &o.Address
		if err := rows.Scan(
			&o.ID, &subID, &o.UserID, &purchaseType, &status, &o.DeliveryType,
			&o.DeliveryFee, &o.DeliveryNotes, &requested,
			&a.FirstName, &a.LastName, &a.Street1, &a.Street2, &a.City, &a.State, &a.ZipCode, &a.Phone,
			&o.CreatedAt, &line.ProductID, &line.Quantity, &line.UnitPrice,
		); err != nil {
			return nil, err
		}
		o.SubscriptionID = subID
		o.PurchaseType = domain.PurchaseType(purchaseType)
		o.Status = domain.Status(status)
		o.RequestedDeliveryDate = requested
		orders = appendLine(orders, &o, line)
	}
	return orders, rows.Err()
}
