package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

const maxNotesLength = 500

// Subscription is a customer's standing order for recurring or spontaneous
// deliveries. Only ACTIVE subscriptions produce orders; CANCELLED is terminal.
type Subscription struct {
	sharedDomain.BaseAggregateRoot
	ownerID                uuid.UUID
	subscriptionType       SubscriptionType
	status                 Status
	nextDeliveryDate       *time.Time
	lastDeliveryDate       *time.Time
	deliveryType           deliveryDomain.Type
	deliveryNotes          string
	address                AddressSnapshot
	items                  []Item
	paymentSubscriptionRef string
}

// NewSubscriptionParams describes a subscription to create.
type NewSubscriptionParams struct {
	OwnerID       uuid.UUID
	Type          SubscriptionType
	Address       AddressSnapshot
	DeliveryType  deliveryDomain.Type
	DeliveryNotes string
	Items         []Item
}

// NewSubscription creates an ACTIVE subscription whose first delivery is
// scheduled by policy relative to now.
func NewSubscription(p NewSubscriptionParams, policy *SchedulePolicy, now time.Time) (*Subscription, error) {
	if p.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if !p.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCadence, p.Type)
	}
	if err := validateDeliveryType(p.DeliveryType); err != nil {
		return nil, err
	}
	notes, err := NormalizeDeliveryNotes(p.DeliveryNotes)
	if err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	if p.Address == (AddressSnapshot{}) {
		return nil, fmt.Errorf("%w: address is required", ErrValidation)
	}

	next, err := policy.Next(now, p.Type)
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		ownerID:           p.OwnerID,
		subscriptionType:  p.Type,
		status:            StatusActive,
		nextDeliveryDate:  &next,
		deliveryType:      p.DeliveryType,
		deliveryNotes:     notes,
		address:           p.Address,
		items:             append([]Item(nil), p.Items...),
	}
	s.AddDomainEvent(NewSubscriptionCreated(s, now))
	return s, nil
}

// RehydrateSubscription rebuilds a subscription from storage.
func RehydrateSubscription(
	base sharedDomain.BaseAggregateRoot,
	ownerID uuid.UUID,
	subscriptionType SubscriptionType,
	status Status,
	nextDeliveryDate, lastDeliveryDate *time.Time,
	deliveryType deliveryDomain.Type,
	deliveryNotes string,
	address AddressSnapshot,
	items []Item,
	paymentSubscriptionRef string,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot:      base,
		ownerID:                ownerID,
		subscriptionType:       subscriptionType,
		status:                 status,
		nextDeliveryDate:       nextDeliveryDate,
		lastDeliveryDate:       lastDeliveryDate,
		deliveryType:           deliveryType,
		deliveryNotes:          deliveryNotes,
		address:                address,
		items:                  items,
		paymentSubscriptionRef: paymentSubscriptionRef,
	}
}

func (s *Subscription) OwnerID() uuid.UUID                { return s.ownerID }
func (s *Subscription) Type() SubscriptionType            { return s.subscriptionType }
func (s *Subscription) Status() Status                    { return s.status }
func (s *Subscription) DeliveryType() deliveryDomain.Type { return s.deliveryType }
func (s *Subscription) DeliveryNotes() string             { return s.deliveryNotes }
func (s *Subscription) Address() AddressSnapshot          { return s.address }
func (s *Subscription) PaymentSubscriptionRef() string    { return s.paymentSubscriptionRef }

// Items returns a copy of the delivery template.
func (s *Subscription) Items() []Item {
	return append([]Item(nil), s.items...)
}

// NextDeliveryDate returns nil when nothing is scheduled.
func (s *Subscription) NextDeliveryDate() *time.Time { return copyTime(s.nextDeliveryDate) }

// LastDeliveryDate returns nil until an order has been derived successfully.
func (s *Subscription) LastDeliveryDate() *time.Time { return copyTime(s.lastDeliveryDate) }

// IsOwnedBy reports whether userID owns the subscription.
func (s *Subscription) IsOwnedBy(userID uuid.UUID) bool {
	return s.ownerID == userID
}

// IsDue reports whether a scan at asOf should deliver this subscription.
func (s *Subscription) IsDue(asOf time.Time) bool {
	return s.status == StatusActive && s.nextDeliveryDate != nil && !s.nextDeliveryDate.After(asOf)
}

// Pause stops deliveries. Pausing a paused subscription is a no-op and reports false.
func (s *Subscription) Pause(now time.Time) (bool, error) {
	switch s.status {
	case StatusPaused:
		return false, nil
	case StatusActive:
		s.status = StatusPaused
		s.Touch(now)
		s.AddDomainEvent(NewSubscriptionPaused(s, now))
		return true, nil
	default:
		return false, s.transitionError(StatusPaused)
	}
}

// Resume reactivates the subscription and restarts its cadence from now;
// the schedule from before the pause is discarded.
func (s *Subscription) Resume(policy *SchedulePolicy, now time.Time) error {
	if s.status.IsTerminal() {
		return s.transitionError(StatusActive)
	}
	next, err := policy.Next(now, s.subscriptionType)
	if err != nil {
		return err
	}
	s.status = StatusActive
	s.nextDeliveryDate = &next
	s.Touch(now)
	s.AddDomainEvent(NewSubscriptionResumed(s, now))
	return nil
}

// Cancel ends the subscription permanently. The stale next date is kept for history.
func (s *Subscription) Cancel(now time.Time) error {
	if s.status.IsTerminal() {
		return s.transitionError(StatusCancelled)
	}
	s.status = StatusCancelled
	s.Touch(now)
	s.AddDomainEvent(NewSubscriptionCancelled(s, now))
	return nil
}

// Patch lists the fields an owner may change after creation. Nil fields are left alone.
type Patch struct {
	Type                   *SubscriptionType
	Status                 *Status
	DeliveryType           *deliveryDomain.Type
	DeliveryNotes          *string
	PaymentSubscriptionRef *string
}

// Apply updates the safe fields. A status change follows the same rules as
// Pause, Resume and Cancel. A type change does not move the next delivery date.
func (s *Subscription) Apply(patch Patch, policy *SchedulePolicy, now time.Time) error {
	if s.status.IsTerminal() {
		return s.transitionError(StatusCancelled)
	}

	if patch.Type != nil && !patch.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedCadence, *patch.Type)
	}
	if patch.DeliveryType != nil {
		if err := validateDeliveryType(*patch.DeliveryType); err != nil {
			return err
		}
	}
	var notes string
	if patch.DeliveryNotes != nil {
		var err error
		if notes, err = NormalizeDeliveryNotes(*patch.DeliveryNotes); err != nil {
			return err
		}
	}

	var changed []string
	if patch.Type != nil && *patch.Type != s.subscriptionType {
		s.subscriptionType = *patch.Type
		changed = append(changed, "type")
	}
	if patch.DeliveryType != nil && *patch.DeliveryType != s.deliveryType {
		s.deliveryType = *patch.DeliveryType
		changed = append(changed, "delivery_type")
	}
	if patch.DeliveryNotes != nil && notes != s.deliveryNotes {
		s.deliveryNotes = notes
		changed = append(changed, "delivery_notes")
	}
	if patch.PaymentSubscriptionRef != nil && *patch.PaymentSubscriptionRef != s.paymentSubscriptionRef {
		s.paymentSubscriptionRef = strings.TrimSpace(*patch.PaymentSubscriptionRef)
		changed = append(changed, "payment_subscription_ref")
	}
	if len(changed) > 0 {
		s.Touch(now)
		s.AddDomainEvent(NewSubscriptionUpdated(s, changed, now))
	}

	if patch.Status != nil && *patch.Status != s.status {
		switch *patch.Status {
		case StatusPaused:
			_, err := s.Pause(now)
			return err
		case StatusActive:
			return s.Resume(policy, now)
		case StatusCancelled:
			return s.Cancel(now)
		default:
			return fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
		}
	}
	return nil
}

// CheckSpontaneousDelivery reports whether the owner may trigger a delivery now.
func (s *Subscription) CheckSpontaneousDelivery() error {
	if !s.subscriptionType.IsSpontaneous() {
		return fmt.Errorf("%w: %s subscriptions are delivered on schedule", ErrInvalidCadence, s.subscriptionType)
	}
	if s.status != StatusActive {
		return fmt.Errorf("%w: cannot deliver a %s subscription", ErrInvalidTransition, strings.ToLower(string(s.status)))
	}
	return nil
}

// MarkDelivered records a successful order derivation. Only an ACTIVE
// subscription can take a delivery.
func (s *Subscription) MarkDelivered(orderID uuid.UUID, purchaseType string, at time.Time) error {
	if s.status != StatusActive {
		return fmt.Errorf("%w: cannot record a delivery on a %s subscription", ErrInvalidTransition, strings.ToLower(string(s.status)))
	}
	at = at.UTC()
	s.lastDeliveryDate = &at
	s.Touch(at)
	s.AddDomainEvent(NewDeliveryDerived(s, orderID, purchaseType, at))
	return nil
}

// Reschedule advances the next delivery date from its previous value, or from
// today when none was set, until it lies after today. It returns the new date.
func (s *Subscription) Reschedule(policy *SchedulePolicy, today time.Time) (time.Time, error) {
	reference := today
	if s.nextDeliveryDate != nil {
		reference = *s.nextDeliveryDate
	}
	next, err := policy.NextAfter(reference, today, s.subscriptionType)
	if err != nil {
		return time.Time{}, err
	}
	previous := s.nextDeliveryDate
	s.nextDeliveryDate = &next
	s.Touch(today)
	s.AddDomainEvent(NewSubscriptionRescheduled(s, previous, today))
	return next, nil
}

func (s *Subscription) transitionError(to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, to)
}

func validateDeliveryType(t deliveryDomain.Type) error {
	if !t.AllowedForSubscriptions() {
		return fmt.Errorf("%w: delivery type %q is not available for subscriptions", ErrValidation, t)
	}
	return nil
}

// NormalizeDeliveryNotes trims notes and enforces the length limit.
func NormalizeDeliveryNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return "", fmt.Errorf("%w: delivery notes exceed %d characters", ErrValidation, maxNotesLength)
	}
	return notes, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
