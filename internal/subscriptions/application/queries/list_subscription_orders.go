package queries

import (
	"context"

	"github.com/google/uuid"

	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// ListSubscriptionOrdersQuery asks for the orders a subscription produced.
type ListSubscriptionOrdersQuery struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
}

// ListSubscriptionOrdersHandler handles the ListSubscriptionOrdersQuery.
type ListSubscriptionOrdersHandler struct {
	repo    domain.Repository
	history orderingDomain.OrderHistory
}

// NewListSubscriptionOrdersHandler creates a new ListSubscriptionOrdersHandler.
func NewListSubscriptionOrdersHandler(repo domain.Repository, history orderingDomain.OrderHistory) *ListSubscriptionOrdersHandler {
	return &ListSubscriptionOrdersHandler{repo: repo, history: history}
}

// Handle executes the ListSubscriptionOrdersQuery after checking ownership.
func (h *ListSubscriptionOrdersHandler) Handle(ctx context.Context, query ListSubscriptionOrdersQuery) ([]OrderDTO, error) {
	sub, err := h.repo.FindByID(ctx, query.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if !sub.IsOwnedBy(query.UserID) {
		return nil, domain.ErrForbidden
	}

	orders, err := h.history.ListBySubscription(ctx, query.SubscriptionID)
	if err != nil {
		return nil, err
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, OrderToDTO(o))
	}
	return dtos, nil
}
