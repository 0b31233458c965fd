// Package domain holds delivery methods and their pricing.
package domain

import (
	"fmt"
	"strings"
)

// Type is a delivery method.
type Type string

const (
	TypeStandard Type = "STANDARD"
	TypeExpress  Type = "EXPRESS"
	TypeSameDay  Type = "SAME_DAY"
	TypePickup   Type = "PICKUP"
)

// ParseType normalizes and validates a delivery method name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeStandard, TypeExpress, TypeSameDay, TypePickup:
		return t, nil
	}
	return "", fmt.Errorf("unknown delivery type %q", s)
}

// AllowedForSubscriptions reports whether recurring deliveries may use t.
// Pickup is a one-time-order option only.
func (t Type) AllowedForSubscriptions() bool {
	switch t {
	case TypeStandard, TypeExpress, TypeSameDay:
		return true
	}
	return false
}

// Rate is the price and ETA text for one delivery method.
type Rate struct {
	Fee      int64
	Estimate string
}

// Quote is a rate resolved for a specific delivery method.
type Quote struct {
	Type     Type   `json:"delivery_type"`
	Fee      int64  `json:"fee_cents"`
	Estimate string `json:"estimate"`
}

// PricingTable maps delivery methods to fees in minor currency units.
// Lookups are total: anything not in the table is priced as STANDARD.
type PricingTable struct {
	rates map[Type]Rate
}

// DefaultRates are the storefront's published delivery rates.
func DefaultRates() map[Type]Rate {
	return map[Type]Rate{
		TypeStandard: {Fee: 899, Estimate: "3-5 business days"},
		TypeExpress:  {Fee: 1599, Estimate: "1-2 business days"},
		TypeSameDay:  {Fee: 2499, Estimate: "Same day delivery"},
		TypePickup:   {Fee: 0, Estimate: "Ready for pickup"},
	}
}

// NewPricingTable builds a table from rates, filling gaps from DefaultRates.
func NewPricingTable(rates map[Type]Rate) *PricingTable {
	merged := DefaultRates()
	for t, r := range rates {
		merged[t] = r
	}
	return &PricingTable{rates: merged}
}

func (p *PricingTable) rate(t Type) Rate {
	if r, ok := p.rates[t]; ok {
		return r
	}
	return p.rates[TypeStandard]
}

// Fee returns the delivery charge for t.
func (p *PricingTable) Fee(t Type) int64 {
	return p.rate(t).Fee
}

// Estimate returns the customer-facing ETA for t.
func (p *PricingTable) Estimate(t Type) string {
	return p.rate(t).Estimate
}

// Quote returns fee and estimate together. Unknown methods are quoted as STANDARD.
func (p *PricingTable) Quote(t Type) Quote {
	if _, ok := p.rates[t]; !ok {
		t = TypeStandard
	}
	r := p.rates[t]
	return Quote{Type: t, Fee: r.Fee, Estimate: r.Estimate}
}

// ForSubscription returns the fee for a subscription delivery. Methods that
// subscriptions cannot use are charged at the STANDARD rate.
func (p *PricingTable) ForSubscription(t Type) int64 {
	if !t.AllowedForSubscriptions() {
		return p.Fee(TypeStandard)
	}
	return p.Fee(t)
}
