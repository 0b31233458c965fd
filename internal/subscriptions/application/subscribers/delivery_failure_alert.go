// Package subscribers reacts to subscription events delivered by the event bus.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/eventbus"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// DeliveryFailureAlert raises an operator alert for every scheduled delivery
// that could not be turned into an order.
type DeliveryFailureAlert struct {
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewDeliveryFailureAlert creates a new alert subscriber.
func NewDeliveryFailureAlert(metrics observability.Metrics, logger *slog.Logger) *DeliveryFailureAlert {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryFailureAlert{
		metrics: observability.MetricsOrNoop(metrics),
		logger:  logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (a *DeliveryFailureAlert) EventTypes() []string {
	return []string{domain.RoutingKeyDeliveryFailed}
}

// Handle logs the failure and counts it by reason. A payload that cannot be
// decoded is an error so the bus can report it.
func (a *DeliveryFailureAlert) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	var failed domain.DeliveryFailed
	if err := json.Unmarshal(event.Payload, &failed); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.RoutingKey, err)
	}

	reason := failed.Reason
	if reason == "" {
		reason = "unknown"
	}
	a.metrics.Counter(observability.MetricDeliveryAlerts, 1, observability.T("reason", reason))
	a.logger.Warn("subscription delivery failed",
		"subscription_id", failed.SubscriptionID,
		"user_id", failed.UserID,
		"reason", reason,
		"error", failed.Error,
		"next_delivery_date", failed.NextDeliveryDate,
		"event_id", event.EventID,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
