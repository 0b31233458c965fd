package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// loadOwned locks the subscription for the rest of the transaction and
// checks that userID owns it.
func loadOwned(ctx context.Context, repo domain.Repository, id, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if !sub.IsOwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return sub, nil
}
