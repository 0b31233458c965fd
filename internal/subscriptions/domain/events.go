package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

const aggregateType = "Subscription"

// Routing keys for subscription events.
const (
	RoutingKeyCreated        = "subscriptions.subscription.created"
	RoutingKeyPaused         = "subscriptions.subscription.paused"
	RoutingKeyResumed        = "subscriptions.subscription.resumed"
	RoutingKeyCancelled      = "subscriptions.subscription.cancelled"
	RoutingKeyUpdated        = "subscriptions.subscription.updated"
	RoutingKeyDelivered      = "subscriptions.subscription.delivered"
	RoutingKeyDeliveryFailed = "subscriptions.subscription.delivery_failed"
	RoutingKeyRescheduled    = "subscriptions.subscription.rescheduled"
)

// SubscriptionCreated is emitted when a subscription is created.
type SubscriptionCreated struct {
	sharedDomain.BaseEvent
	SubscriptionID   uuid.UUID  `json:"subscription_id"`
	UserID           uuid.UUID  `json:"user_id"`
	Type             string     `json:"type"`
	DeliveryType     string     `json:"delivery_type"`
	NextDeliveryDate *time.Time `json:"next_delivery_date"`
	ItemCount        int        `json:"item_count"`
}

func NewSubscriptionCreated(s *Subscription, at time.Time) *SubscriptionCreated {
	return &SubscriptionCreated{
		BaseEvent:        sharedDomain.NewBaseEvent(s.ID(), aggregateType, RoutingKeyCreated, at),
		SubscriptionID:   s.ID(),
		UserID:           s.OwnerID(),
		Type:             string(s.Type()),
		DeliveryType:     string(s.DeliveryType()),
		NextDeliveryDate: s.NextDeliveryDate(),
		ItemCount:        len(s.items),
	}
}

// SubscriptionStatusChanged is emitted on pause, resume and cancel.
type SubscriptionStatusChanged struct {
	sharedDomain.BaseEvent
	SubscriptionID   uuid.UUID  `json:"subscription_id"`
	UserID           uuid.UUID  `json:"user_id"`
	Status           string     `json:"status"`
	NextDeliveryDate *time.Time `json:"next_delivery_date,omitempty"`
}

func newStatusChanged(s *Subscription, routingKey string, at time.Time) *SubscriptionStatusChanged {
	return &SubscriptionStatusChanged{
		BaseEvent:        sharedDomain.NewBaseEvent(s.ID(), aggregateType, routingKey, at),
		SubscriptionID:   s.ID(),
		UserID:           s.OwnerID(),
		Status:           string(s.Status()),
		NextDeliveryDate: s.NextDeliveryDate(),
	}
}

func NewSubscriptionPaused(s *Subscription, at time.Time) *SubscriptionStatusChanged {
	return newStatusChanged(s, RoutingKeyPaused, at)
}

func NewSubscriptionResumed(s *Subscription, at time.Time) *SubscriptionStatusChanged {
	return newStatusChanged(s, RoutingKeyResumed, at)
}

func NewSubscriptionCancelled(s *Subscription, at time.Time) *SubscriptionStatusChanged {
	return newStatusChanged(s, RoutingKeyCancelled, at)
}

// SubscriptionUpdated is emitted when safe fields change.
type SubscriptionUpdated struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	UserID         uuid.UUID `json:"user_id"`
	Fields         []string  `json:"fields"`
}

func NewSubscriptionUpdated(s *Subscription, fields []string, at time.Time) *SubscriptionUpdated {
	return &SubscriptionUpdated{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), aggregateType, RoutingKeyUpdated, at),
		SubscriptionID: s.ID(),
		UserID:         s.OwnerID(),
		Fields:         fields,
	}
}

// DeliveryDerived is emitted when an order was created from the subscription.
type DeliveryDerived struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrderID        uuid.UUID `json:"order_id"`
	PurchaseType   string    `json:"purchase_type"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

func NewDeliveryDerived(s *Subscription, orderID uuid.UUID, purchaseType string, at time.Time) *DeliveryDerived {
	return &DeliveryDerived{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), aggregateType, RoutingKeyDelivered, at),
		SubscriptionID: s.ID(),
		UserID:         s.OwnerID(),
		OrderID:        orderID,
		PurchaseType:   purchaseType,
		DeliveredAt:    at,
	}
}

// DeliveryFailed is emitted when a scheduled order could not be created.
// It is not recorded on the aggregate: the subscription itself is unchanged.
type DeliveryFailed struct {
	sharedDomain.BaseEvent
	SubscriptionID   uuid.UUID  `json:"subscription_id"`
	UserID           uuid.UUID  `json:"user_id"`
	Reason           string     `json:"reason"`
	Error            string     `json:"error"`
	NextDeliveryDate *time.Time `json:"next_delivery_date,omitempty"`
}

func NewDeliveryFailed(s *Subscription, reason string, cause error, at time.Time) *DeliveryFailed {
	return &DeliveryFailed{
		BaseEvent:        sharedDomain.NewBaseEvent(s.ID(), aggregateType, RoutingKeyDeliveryFailed, at),
		SubscriptionID:   s.ID(),
		UserID:           s.OwnerID(),
		Reason:           reason,
		Error:            cause.Error(),
		NextDeliveryDate: s.NextDeliveryDate(),
	}
}

// SubscriptionRescheduled is emitted when the scanner moves the next delivery date.
type SubscriptionRescheduled struct {
	sharedDomain.BaseEvent
	SubscriptionID   uuid.UUID  `json:"subscription_id"`
	PreviousDate     *time.Time `json:"previous_date,omitempty"`
	NextDeliveryDate *time.Time `json:"next_delivery_date"`
}

func NewSubscriptionRescheduled(s *Subscription, previous *time.Time, at time.Time) *SubscriptionRescheduled {
	return &SubscriptionRescheduled{
		BaseEvent:        sharedDomain.NewBaseEvent(s.ID(), aggregateType, RoutingKeyRescheduled, at),
		SubscriptionID:   s.ID(),
		PreviousDate:     copyTime(previous),
		NextDeliveryDate: s.NextDeliveryDate(),
	}
}
