package gormstore

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/storage/storagetest"
)

// setupTestStore opens an in-memory SQLite database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	log, _ := test.NewNullLogger()
	s, err := Open(":memory:", false, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Store {
		return setupTestStore(t)
	})
}

func TestStorePing(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
