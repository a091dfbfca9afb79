package connection

import (
	"fmt"
	"net/url"
	"strings"
)

// Config describes how to open a named connection
type Config struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// Validate checks the configuration names a supported driver and a DSN
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("connection dsn is required")
	}
	if _, err := NewDialect(c.Driver); err != nil {
		return err
	}
	return nil
}

// ParseURL builds a Config from a database URL such as DATABASE_URL.
// postgres:// and postgresql:// URLs are passed to pgx unchanged; sqlite://
// and sqlite3:// URLs keep the path and query as the DSN.
func ParseURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return Config{Driver: "postgres", DSN: raw}, nil
	case "sqlite", "sqlite3":
		dsn := u.Opaque
		if dsn == "" {
			dsn = u.Host + u.Path
		}
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
		if dsn == "" {
			return Config{}, fmt.Errorf("invalid database url: missing sqlite path")
		}
		return Config{Driver: "sqlite", DSN: dsn}, nil
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedDriver, u.Scheme)
	}
}
