// Package queries holds the subscription read-side handlers.
package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// GetSubscriptionQuery contains the parameters for getting a single subscription.
type GetSubscriptionQuery struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
}

// GetSubscriptionHandler handles the GetSubscriptionQuery.
type GetSubscriptionHandler struct {
	repo domain.Repository
}

// NewGetSubscriptionHandler creates a new GetSubscriptionHandler.
func NewGetSubscriptionHandler(repo domain.Repository) *GetSubscriptionHandler {
	return &GetSubscriptionHandler{repo: repo}
}

// Handle executes the GetSubscriptionQuery.
func (h *GetSubscriptionHandler) Handle(ctx context.Context, query GetSubscriptionQuery) (*SubscriptionDTO, error) {
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
	dto := ToDTO(sub)
	return &dto, nil
}
