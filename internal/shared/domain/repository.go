package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the minimal contract every aggregate store satisfies.
type Repository[T AggregateRoot] interface {
	Save(ctx context.Context, aggregate T) error
	FindByID(ctx context.Context, id uuid.UUID) (T, error)
}
