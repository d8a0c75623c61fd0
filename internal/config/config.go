// Package config resolves runtime settings from flags, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"tasktracker/internal/storage"
	"tasktracker/internal/util"
)

// Config holds everything needed to start the service.
type Config struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	Store           storage.Options
}

// Load reads envFile (a missing file is fine) and then parses args. After
// printing usage for -h it returns flag.ErrHelp.
func Load(envFile string, args []string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	fset := flag.NewFlagSet("tasktracker", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", util.EnvOrDefault("TASKS_ADDR", ":8080"), "HTTP listen address")
	fset.StringVar(&cfg.LogLevel, "log-level", util.EnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fset.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", util.EnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Grace period for in-flight requests")
	fset.StringVar(&cfg.Store.Driver, "store", util.EnvOrDefault("STORE_DRIVER", storage.DriverSQLite), "Store driver (sqlite, gorm, postgres, memory)")
	fset.StringVar(&cfg.Store.Path, "db", util.EnvOrDefault("TASKS_DB_PATH", "data/tasks.db"), "Path to sqlite database file")
	fset.StringVar(&cfg.Store.DatabaseURL, "database-url", util.EnvOrDefault("DATABASE_URL", ""), "PostgreSQL connection URL")
	fset.BoolVar(&cfg.Store.Debug, "db-debug", util.EnvBool("DB_DEBUG", false), "Log every SQL statement (gorm driver)")
	fset.StringVar(&cfg.Store.RedisAddr, "redis", util.EnvOrDefault("REDIS_ADDR", ""), "Redis address for the task cache; empty disables it")
	fset.StringVar(&cfg.Store.CachePrefix, "cache-prefix", util.EnvOrDefault("CACHE_PREFIX", "tasktracker:"), "Redis key prefix")
	fset.DurationVar(&cfg.Store.CacheTTL, "cache-ttl", util.EnvDuration("CACHE_TTL", time.Minute), "Cache entry lifetime")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case storage.DriverSQLite, storage.DriverGorm:
		if c.Store.Path == "" {
			return fmt.Errorf("store %q needs a database path", c.Store.Driver)
		}
	case storage.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store %q needs DATABASE_URL", c.Store.Driver)
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
