package cli

import (
	"errors"
	"fmt"

	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// Explain prefixes err with a message a customer-support operator can act on.
// The original error stays wrapped, so errors.Is keeps working.
func Explain(err error) error {
	if err == nil {
		return nil
	}
	var msg string
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		msg = "no such subscription"
	case errors.Is(err, domain.ErrForbidden):
		msg = "that subscription belongs to a different customer"
	case errors.Is(err, domain.ErrInvalidCadence):
		msg = "on-demand deliveries are only available for spontaneous subscriptions"
	case errors.Is(err, domain.ErrInvalidTransition):
		msg = "that change is not allowed in the subscription's current status"
	case errors.Is(err, domain.ErrUnsupportedCadence):
		msg = "unknown subscription type"
	case errors.Is(err, orderingDomain.ErrOutOfStock):
		msg = "the order could not be placed because an item is out of stock"
	case errors.Is(err, catalogDomain.ErrProductNotFound):
		msg = "a product in this subscription is no longer in the catalog"
	case errors.Is(err, domain.ErrUpstreamFailure):
		msg = "the order service rejected the request, try again later"
	case errors.Is(err, domain.ErrValidation):
		msg = "invalid input"
	default:
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
