package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

func orderRequest() domain.OrderRequest {
	subID := uuid.New()
	return domain.OrderRequest{
		SubscriptionID: &subID,
		UserID:         uuid.New(),
		PurchaseType:   domain.PurchaseTypeSubscription,
		Items:          []domain.OrderLine{{ProductID: uuid.New(), Quantity: 1, UnitPrice: 4500}},
		DeliveryType:   "EXPRESS",
		DeliveryFee:    1599,
	}
}

func TestClient_CreateOrder(t *testing.T) {
	t.Run("successfully creates an order", func(t *testing.T) {
		orderID := uuid.New()
		var received domain.OrderRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/orders", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": orderID, "status": "PENDING"})
		}))
		defer srv.Close()

		metrics := observability.NewInMemoryMetrics()
		client := New(DefaultConfig(srv.URL+"/"), nil, metrics, nil)
		req := orderRequest()

		order, err := client.CreateOrder(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Equal(t, req.Items, order.Items)
		assert.Equal(t, *req.SubscriptionID, *received.SubscriptionID)
		assert.Equal(t, int64(1599), received.DeliveryFee)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOrderServiceCalls, observability.T("outcome", "created")))
	})

	tests := []struct {
		name   string
		status int
		body   string
		err    error
	}{
		{"out of stock code", http.StatusUnprocessableEntity, `{"code":"OUT_OF_STOCK","message":"Peony bouquet"}`, domain.ErrOutOfStock},
		{"conflict", http.StatusConflict, ``, domain.ErrOutOfStock},
		{"validation", http.StatusBadRequest, `{"message":"bad zip"}`, domain.ErrOrderValidation},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrOrderUnknown},
		{"created without id", http.StatusCreated, `{}`, domain.ErrOrderUnknown},
	}
	for _, tt := range tests {
		t.Run("maps "+tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(DefaultConfig(srv.URL), nil, nil, nil).CreateOrder(context.Background(), orderRequest())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.FailureThreshold = 2
	cfg.Cooldown = time.Minute
	client := New(cfg, nil, nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.CreateOrder(ctx, orderRequest())
		require.ErrorIs(t, err, domain.ErrOrderUnknown)
	}

	_, err := client.CreateOrder(ctx, orderRequest())
	assert.ErrorIs(t, err, domain.ErrOrderUnknown)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the server")
}

func TestClient_BusinessRejectionsKeepBreakerClosed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.FailureThreshold = 1
	client := New(cfg, nil, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := client.CreateOrder(context.Background(), orderRequest())
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
	}
	assert.Equal(t, int32(3), calls.Load())
}
