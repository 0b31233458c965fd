// Package persistence stores subscription aggregates and their item templates.
package persistence

import (
	"time"

	"github.com/google/uuid"

	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

const subscriptionColumns = `
	id, user_id, type, status, next_delivery_date, last_delivery_date, delivery_type,
	delivery_notes, payment_subscription_ref,
	first_name, last_name, street1, street2, city, state, zip_code, phone,
	version, created_at, updated_at`

// record is a subscriptions row before items are attached.
type record struct {
	id           uuid.UUID
	userID       uuid.UUID
	typ          string
	status       string
	next         *time.Time
	last         *time.Time
	deliveryType string
	notes        string
	paymentRef   string
	address      domain.AddressInput
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

type itemRow struct {
	subscriptionID uuid.UUID
	productID      uuid.UUID
	quantity       int
}

func (r record) toDomain(items []domain.Item) *domain.Subscription {
	base := sharedDomain.RehydrateBaseAggregateRoot(
		sharedDomain.RehydrateBaseEntity(r.id, r.createdAt, r.updatedAt),
		r.version,
	)
	return domain.RehydrateSubscription(
		base,
		r.userID,
		domain.SubscriptionType(r.typ),
		domain.Status(r.status),
		r.next,
		r.last,
		deliveryDomain.Type(r.deliveryType),
		r.notes,
		domain.RehydrateAddressSnapshot(r.address),
		items,
		r.paymentRef,
	)
}

// assemble attaches items to records, preserving record order.
func assemble(records []record, items []itemRow) []*domain.Subscription {
	byID := make(map[uuid.UUID][]domain.Item, len(records))
	for _, it := range items {
		byID[it.subscriptionID] = append(byID[it.subscriptionID], domain.RehydrateItem(it.productID, it.quantity))
	}
	out := make([]*domain.Subscription, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain(byID[r.id]))
	}
	return out
}

func recordIDs(records []record) []uuid.UUID {
	ids := make([]uuid.UUID, len(records))
	for i, r := range records {
		ids[i] = r.id
	}
	return ids
}

// addressArgs lists the address columns in subscriptionColumns order.
func addressArgs(a domain.AddressSnapshot) []any {
	return []any{a.FirstName(), a.LastName(), a.Street1(), a.Street2(), a.City(), a.State(), a.ZipCode(), a.Phone()}
}
