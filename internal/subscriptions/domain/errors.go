package domain

import "errors"

// Error taxonomy for the subscription engine. Detailed errors wrap one of these
// so callers can classify with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrForbidden            = errors.New("subscription belongs to another user")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidCadence       = errors.New("operation not allowed for this cadence")
	ErrUnsupportedCadence   = errors.New("unsupported subscription type")
	ErrUpstreamFailure      = errors.New("upstream collaborator failed")
)
