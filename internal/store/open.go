package store

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	RedisURL    string
	DatabaseURL string
}

// OpenBackend connects the backend named by opts.Driver.
func OpenBackend(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverRedis:
		return NewRedis(ctx, opts.RedisURL)
	case DriverPostgres:
		return NewPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
