package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/storage"
)

var configKeys = []string{
	"TASKS_ADDR", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "STORE_DRIVER", "TASKS_DB_PATH",
	"DATABASE_URL", "DB_DEBUG", "REDIS_ADDR", "CACHE_PREFIX", "CACHE_TTL",
}

// clearEnv unsets every config variable for the duration of the test.
// godotenv never overrides a variable that is set, even to "", so t.Setenv
// cannot be used for this.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, storage.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/tasks.db", cfg.Store.Path)
	assert.Empty(t, cfg.Store.RedisAddr)
	assert.Equal(t, time.Minute, cfg.Store.CacheTTL)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TASKS_ADDR=:9000\nSTORE_DRIVER=memory\nCACHE_TTL=30s\n"), 0o600))
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(envFile, []string{"-addr", ":7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "flag wins over .env")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, storage.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"), nil)
	assert.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown driver", []string{"-store", "mongo"}},
		{"postgres without url", []string{"-store", "postgres"}},
		{"sqlite without path", []string{"-db", ""}},
		{"zero shutdown timeout", []string{"-shutdown-timeout", "0s"}},
		{"unknown flag", []string{"-verbose"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load("", tc.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	clearEnv(t)

	for _, arg := range []string{"-h", "-help"} {
		_, err := Load("", []string{arg})
		assert.True(t, errors.Is(err, flag.ErrHelp), "%s: got %v", arg, err)
	}
}
