// Package persistence stores orders locally when no remote order service is
// configured. It checks and decrements product stock the way the order service
// would, so scheduled deliveries behave the same in both setups.
package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	sharedApplication "github.com/xl-c111/Flora-sub001/internal/shared/application"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
)

// dialect holds the SQL that differs between backends.
type dialect interface {
	reserveStock(ctx context.Context, ex database.Executor, line domain.OrderLine) (bool, error)
	productExists(ctx context.Context, ex database.Executor, productID uuid.UUID) (bool, error)
	insertOrder(ctx context.Context, ex database.Executor, order *domain.Order) error
	listBySubscription(ctx context.Context, ex database.Executor, subscriptionID uuid.UUID) ([]*domain.Order, error)
}

// OrderStore implements domain.OrderCreator and domain.OrderHistory on the
// application database. Creating an order is all-or-nothing: a line that cannot
// be reserved leaves stock and orders untouched.
type OrderStore struct {
	conn    database.Connection
	uow     sharedApplication.UnitOfWork
	dialect dialect
	clock   sharedDomain.Clock
}

// NewOrderStore picks the SQL dialect from conn's driver.
func NewOrderStore(conn database.Connection, clock sharedDomain.Clock) *OrderStore {
	var d dialect = postgresDialect{}
	if conn.Driver() == database.DriverSQLite {
		d = sqliteDialect{}
	}
	return &OrderStore{
		conn:    conn,
		uow:     database.NewUnitOfWork(conn),
		dialect: d,
		clock:   sharedDomain.ClockOrSystem(clock),
	}
}

// CreateOrder validates req, reserves stock for every line and records the order.
func (s *OrderStore) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, s.uow, func(txCtx context.Context) (*domain.Order, error) {
		ex := database.ExecutorFromContext(txCtx, s.conn)

		for _, line := range req.Items {
			reserved, err := s.dialect.reserveStock(txCtx, ex, line)
			if err != nil {
				return nil, fmt.Errorf("%w: reserve stock: %w", domain.ErrOrderUnknown, err)
			}
			if reserved {
				continue
			}
			exists, err := s.dialect.productExists(txCtx, ex, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("%w: look up product: %w", domain.ErrOrderUnknown, err)
			}
			if !exists {
				return nil, fmt.Errorf("%w: unknown product %s", domain.ErrOrderValidation, line.ProductID)
			}
			return nil, fmt.Errorf("%w: product %s, requested %d", domain.ErrOutOfStock, line.ProductID, line.Quantity)
		}

		order := &domain.Order{
			ID:           uuid.New(),
			Status:       domain.StatusConfirmed,
			CreatedAt:    s.clock.Now().UTC(),
			OrderRequest: req,
		}
		if err := s.dialect.insertOrder(txCtx, ex, order); err != nil {
			return nil, fmt.Errorf("%w: save order: %w", domain.ErrOrderUnknown, err)
		}
		return order, nil
	})
}

// ListBySubscription returns the orders derived from a subscription, newest first.
func (s *OrderStore) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.dialect.listBySubscription(ctx, database.ExecutorFromContext(ctx, s.conn), subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// appendLine groups joined order/item rows: consecutive rows of one order share
// the last element of orders.
func appendLine(orders []*domain.Order, order *domain.Order, line domain.OrderLine) []*domain.Order {
	if n := len(orders); n > 0 && orders[n-1].ID == order.ID {
		orders[n-1].Items = append(orders[n-1].Items, line)
		return orders
	}
	order.Items = []domain.OrderLine{line}
	return append(orders, order)
}
