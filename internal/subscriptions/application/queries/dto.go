package queries

import (
	"time"

	"github.com/google/uuid"

	orderingDomain "github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// SubscriptionDTO is a data transfer object for subscriptions.
type SubscriptionDTO struct {
	ID                     uuid.UUID           `json:"id"`
	UserID                 uuid.UUID           `json:"user_id"`
	Type                   string              `json:"type"`
	Status                 string              `json:"status"`
	Spontaneous            bool                `json:"spontaneous"`
	NextDeliveryDate       *time.Time          `json:"next_delivery_date,omitempty"`
	LastDeliveryDate       *time.Time          `json:"last_delivery_date,omitempty"`
	DeliveryType           string              `json:"delivery_type"`
	DeliveryNotes          string              `json:"delivery_notes,omitempty"`
	Address                domain.AddressInput `json:"shipping_address"`
	Items                  []domain.ItemInput  `json:"items"`
	PaymentSubscriptionRef string              `json:"payment_subscription_ref,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// ToDTO flattens a subscription for callers outside the domain.
func ToDTO(s *domain.Subscription) SubscriptionDTO {
	items := make([]domain.ItemInput, 0, len(s.Items()))
	for _, item := range s.Items() {
		items = append(items, domain.ItemInput{ProductID: item.ProductID(), Quantity: item.Quantity()})
	}
	return SubscriptionDTO{
		ID:                     s.ID(),
		UserID:                 s.OwnerID(),
		Type:                   string(s.Type()),
		Status:                 string(s.Status()),
		Spontaneous:            s.Type().IsSpontaneous(),
		NextDeliveryDate:       s.NextDeliveryDate(),
		LastDeliveryDate:       s.LastDeliveryDate(),
		DeliveryType:           string(s.DeliveryType()),
		DeliveryNotes:          s.DeliveryNotes(),
		Address:                s.Address().Input(),
		Items:                  items,
		PaymentSubscriptionRef: s.PaymentSubscriptionRef(),
		CreatedAt:              s.CreatedAt(),
		UpdatedAt:              s.UpdatedAt(),
	}
}

// OrderDTO summarizes an order derived from a subscription.
type OrderDTO struct {
	ID                    uuid.UUID  `json:"id"`
	Status                string     `json:"status"`
	PurchaseType          string     `json:"purchase_type"`
	DeliveryType          string     `json:"delivery_type"`
	Subtotal              int64      `json:"subtotal"`
	DeliveryFee           int64      `json:"delivery_fee"`
	Total                 int64      `json:"total"`
	RequestedDeliveryDate *time.Time `json:"requested_delivery_date,omitempty"`
	ItemCount             int        `json:"item_count"`
	CreatedAt             time.Time  `json:"created_at"`
}

// OrderToDTO flattens an order.
func OrderToDTO(o *orderingDomain.Order) OrderDTO {
	return OrderDTO{
		ID:                    o.ID,
		Status:                string(o.Status),
		PurchaseType:          string(o.PurchaseType),
		DeliveryType:          o.DeliveryType,
		Subtotal:              o.Subtotal(),
		DeliveryFee:           o.DeliveryFee,
		Total:                 o.Total(),
		RequestedDeliveryDate: o.RequestedDeliveryDate,
		ItemCount:             len(o.Items),
		CreatedAt:             o.CreatedAt,
	}
}
