package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// ListSubscriptionsQuery contains the parameters for listing subscriptions.
type ListSubscriptionsQuery struct {
	UserID uuid.UUID
	Status string // optional: ACTIVE, PAUSED or CANCELLED
}

// ListSubscriptionsHandler handles the ListSubscriptionsQuery.
type ListSubscriptionsHandler struct {
	repo domain.Repository
}

// NewListSubscriptionsHandler creates a new ListSubscriptionsHandler.
func NewListSubscriptionsHandler(repo domain.Repository) *ListSubscriptionsHandler {
	return &ListSubscriptionsHandler{repo: repo}
}

// Handle executes the ListSubscriptionsQuery. Results are newest first.
func (h *ListSubscriptionsHandler) Handle(ctx context.Context, query ListSubscriptionsQuery) ([]SubscriptionDTO, error) {
	var status domain.Status
	if query.Status != "" {
		var err error
		if status, err = domain.ParseStatus(query.Status); err != nil {
			return nil, err
		}
	}

	subs, err := h.repo.FindByOwner(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]SubscriptionDTO, 0, len(subs))
	for _, s := range subs {
		if status != "" && s.Status() != status {
			continue
		}
		dtos = append(dtos, ToDTO(s))
	}
	return dtos, nil
}
