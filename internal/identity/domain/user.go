// Package domain is the engine's slice of the user directory. Accounts are
// owned elsewhere; the engine only needs a users row to hang subscriptions on.
package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidUser is returned for the nil user id.
var ErrInvalidUser = errors.New("invalid user id")

// UserEnsurer makes sure a user row exists. It is idempotent.
type UserEnsurer interface {
	EnsureExists(ctx context.Context, userID uuid.UUID) error
}

// ValidateUserID rejects the nil id.
func ValidateUserID(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidUser
	}
	return nil
}
