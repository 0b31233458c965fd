package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricDeliveriesFailed, 1, T("reason", "out_of_stock"), T("path", "scheduled"))
	m.Counter(MetricDeliveriesFailed, 2, T("path", "scheduled"), T("reason", "out_of_stock"))
	m.Gauge(MetricScanDue, 5)
	m.Gauge(MetricScanDue, 3)
	m.Timing(MetricScanDuration, time.Second)

	assert.Equal(t, int64(3), m.GetCounter(MetricDeliveriesFailed, T("reason", "out_of_stock"), T("path", "scheduled")))
	assert.Zero(t, m.GetCounter(MetricDeliveriesFailed))
	assert.Equal(t, 3.0, m.GetGauge(MetricScanDue))
	assert.Equal(t, []time.Duration{time.Second}, m.GetTimings(MetricScanDuration))
}

func TestMetricsOrNoop(t *testing.T) {
	assert.IsType(t, NoopMetrics{}, MetricsOrNoop(nil))

	m := NewInMemoryMetrics()
	assert.Same(t, m, MetricsOrNoop(m))
}

func TestHealthRegistry(t *testing.T) {
	t.Run("healthy with no checks", func(t *testing.T) {
		assert.Equal(t, HealthStatusHealthy, NewHealthRegistry().Check(context.Background()).Status)
	})

	t.Run("degraded dependency degrades overall", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
		r.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

		health := r.Check(context.Background())

		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Contains(t, health.Checks["redis"].Message, "refused")
	})

	t.Run("readiness returns 503 when unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return errors.New("down") }))

		rec := httptest.NewRecorder()
		r.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"unhealthy"`)
	})

	t.Run("liveness always ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
