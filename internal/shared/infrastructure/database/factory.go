package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and tunes a database backend.
type Config struct {
	// Driver is detected from URL when empty.
	Driver Driver
	// URL is the PostgreSQL connection string, or a sqlite:// path.
	URL string
	// SQLitePath overrides the path derived from URL.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// ConfigFromURL builds a Config from a DATABASE_URL value.
func ConfigFromURL(url string, maxConns int) Config {
	cfg := Config{Driver: DetectDriver(url), URL: url, MaxConns: maxConns}
	if cfg.Driver == DriverSQLite && url != "" {
		cfg.SQLitePath = SQLitePathFromURL(url)
	}
	return cfg
}

type connectFunc func(ctx context.Context, cfg Config) (Connection, error)

var connectors = map[Driver]connectFunc{}

// RegisterDriver installs the connection factory for a backend.
// Backend packages call it from init so importing them is enough to enable them.
func RegisterDriver(driver Driver, fn func(ctx context.Context, cfg Config) (Connection, error)) {
	connectors[driver] = fn
}

// NewConnection opens a connection for the configured backend.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	connect, ok := connectors[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return connect(ctx, cfg)
}

// DefaultSQLitePath is ~/.flora/flora.db.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".flora", "flora.db")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
