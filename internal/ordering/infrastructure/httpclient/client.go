// Package httpclient talks to a remote order-management service over REST.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/xl-c111/Flora-sub001/internal/ordering/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// Config configures the client and its circuit breaker.
type Config struct {
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
}

// DefaultConfig returns sane client defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Client implements domain.OrderCreator against POST {BaseURL}/orders.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Order]
	metrics observability.Metrics
	logger  *slog.Logger
}

// errorBody is the order service's error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New creates a client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, metrics observability.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	metrics = observability.MetricsOrNoop(metrics)

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		metrics: metrics,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*domain.Order](gobreaker.Settings{
		Name:        "order-service",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= max(cfg.FailureThreshold, 1)
		},
		// Business rejections mean the service is healthy.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrOutOfStock) || errors.Is(err, domain.ErrOrderValidation)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// CreateOrder submits req. Calls are refused with ErrOrderUnknown while the breaker is open.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	order, err := c.breaker.Execute(func() (*domain.Order, error) {
		return c.post(ctx, req)
	})
	switch {
	case err == nil:
		c.metrics.Counter(observability.MetricOrderServiceCalls, 1, observability.T("outcome", "created"))
		return order, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Counter(observability.MetricOrderServiceCalls, 1, observability.T("outcome", "rejected"))
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderUnknown, err)
	default:
		c.metrics.Counter(observability.MetricOrderServiceCalls, 1, observability.T("outcome", "failed"))
		return nil, err
	}
}

func (c *Client) post(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", domain.ErrOrderValidation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrOrderUnknown, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOrderUnknown, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrOrderUnknown, err)
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var order domain.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("%w: decode order: %w", domain.ErrOrderUnknown, err)
		}
		if order.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: response has no order id", domain.ErrOrderUnknown)
		}
		if len(order.Items) == 0 {
			order.OrderRequest = req
		}
		return &order, nil
	}
	return nil, classify(resp.StatusCode, raw)
}

func classify(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case body.Code == "OUT_OF_STOCK" || status == http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrOutOfStock, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrOrderValidation, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrOrderUnknown, status, msg)
	}
}
