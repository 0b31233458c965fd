package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

// Repository persists subscriptions together with their items.
// Find methods return nil, nil when nothing matches.
// Save upserts the subscription row and replaces its items.
type Repository interface {
	sharedDomain.Repository[*Subscription]

	// FindByIDForUpdate loads the subscription and locks its row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByOwner lists a user's subscriptions, newest first.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Subscription, error)

	// FindDue returns ACTIVE subscriptions whose next delivery date is at or before asOf.
	FindDue(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// UpdateSchedule writes only the delivery dates and audit columns.
	UpdateSchedule(ctx context.Context, s *Subscription) error
}
