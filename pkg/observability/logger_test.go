package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("JSON output carries service and context attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          "info",
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "flora-worker",
			ServiceVersion: "1.2.3",
		})

		ctx := WithCorrelationID(context.Background(), "corr-1")
		ctx = WithUserID(ctx, "user-9")
		logger.InfoContext(ctx, "subscription paused", "subscription_id", "sub-1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "subscription paused", entry["msg"])
		assert.Equal(t, "flora-worker", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "user-9", entry[UserIDKey])
		assert.Equal(t, "sub-1", entry["subscription_id"])
	})

	t.Run("respects the minimum level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

		logger.Info("hidden")
		assert.Empty(t, buf.String())

		logger.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("derived loggers keep context attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).With("component", "scanner")

		logger.InfoContext(WithRequestID(context.Background(), "req-1"), "tick")

		assert.Contains(t, buf.String(), `"component":"scanner"`)
		assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "parent")
	assert.Equal(t, "parent", CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))

	fresh := NewRequestContext(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(fresh))
	assert.Empty(t, UserIDFromContext(fresh))
}
