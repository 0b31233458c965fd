package domain

import "errors"

// Errors reported by an OrderCreator.
var (
	ErrOutOfStock      = errors.New("product out of stock")
	ErrOrderValidation = errors.New("order rejected as invalid")
	ErrOrderUnknown    = errors.New("order service failed")
)
