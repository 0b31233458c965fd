package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validRequest() OrderRequest {
	return OrderRequest{
		UserID:       uuid.New(),
		PurchaseType: PurchaseTypeSubscription,
		Items: []OrderLine{
			{ProductID: uuid.New(), Quantity: 2, UnitPrice: 2500},
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: 1299},
		},
		DeliveryType: "STANDARD",
		DeliveryFee:  899,
	}
}

func TestOrderRequest_Totals(t *testing.T) {
	req := validRequest()

	assert.Equal(t, int64(6299), req.Subtotal())
	assert.Equal(t, int64(7198), req.Total())
}

func TestOrderRequest_Validate(t *testing.T) {
	assert.NoError(t, validRequest().Validate())

	tests := []struct {
		name   string
		mutate func(r *OrderRequest)
	}{
		{"missing user", func(r *OrderRequest) { r.UserID = uuid.Nil }},
		{"unknown purchase type", func(r *OrderRequest) { r.PurchaseType = "GIFT" }},
		{"no items", func(r *OrderRequest) { r.Items = nil }},
		{"zero quantity", func(r *OrderRequest) { r.Items[0].Quantity = 0 }},
		{"negative price", func(r *OrderRequest) { r.Items[1].UnitPrice = -1 }},
		{"negative fee", func(r *OrderRequest) { r.DeliveryFee = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrOrderValidation)
		})
	}
}
