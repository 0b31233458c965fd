package app

import (
	"io"
	"log/slog"

	"github.com/xl-c111/Flora-sub001/pkg/config"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// NewLogger builds the process logger for service from configuration.
// Development always logs at debug level.
func NewLogger(cfg *config.Config, service, version string, out io.Writer) *slog.Logger {
	level := cfg.LogLevel
	if cfg.IsDevelopment() {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:          level,
		Format:         observability.LogFormat(cfg.LogFormat),
		Output:         out,
		AddSource:      cfg.LogAddSource,
		ServiceName:    service,
		ServiceVersion: version,
	})
}
