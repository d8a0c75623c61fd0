// Package storage defines the task store contract and opens the configured backend.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/models"
	"tasktracker/internal/storage/cache"
	"tasktracker/internal/storage/gormstore"
	"tasktracker/internal/storage/memory"
	"tasktracker/internal/storage/postgres"
	"tasktracker/internal/storage/sqlite"
)

// TaskStore is the persistence contract the HTTP layer depends on.
type TaskStore interface {
	// FindAll returns every task ordered by id.
	FindAll(ctx context.Context) ([]models.Task, error)
	// FindByID reports absence through the bool, never through the error.
	FindByID(ctx context.Context, id int64) (models.Task, bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Save inserts t when its id is zero or unknown and overwrites it otherwise,
	// returning the stored row.
	Save(ctx context.Context, t models.Task) (models.Task, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Backend is a TaskStore that owns a connection.
type Backend interface {
	TaskStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*gormstore.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*cache.Store)(nil)
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
	Debug       bool

	// RedisAddr enables the read-through cache when set.
	RedisAddr   string
	CachePrefix string
	CacheTTL    time.Duration
}

// Open constructs the backend named by opts.Driver, wrapped in the Redis cache
// when opts.RedisAddr is set.
func Open(ctx context.Context, opts Options, log logrus.FieldLogger) (Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var (
		backend Backend
		err     error
	)
	switch opts.Driver {
	case DriverMemory:
		backend = memory.New()
	case DriverSQLite, "":
		backend, err = sqlite.Open(opts.Path, log)
	case DriverGorm:
		backend, err = gormstore.Open(opts.Path, opts.Debug, log)
	case DriverPostgres:
		backend, err = postgres.Open(ctx, opts.DatabaseURL, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if opts.RedisAddr == "" {
		return backend, nil
	}

	client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = backend.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
	}
	log.WithField("addr", opts.RedisAddr).Info("task cache enabled")
	return cache.New(backend, client, opts.CachePrefix, opts.CacheTTL, log), nil
}
