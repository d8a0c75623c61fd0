package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
	"tasktracker/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	log, _ := test.NewNullLogger()
	s, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Store {
		return newTestStore(t)
	})
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")
	ctx := context.Background()
	due := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	s, err := Open(path, logrus.New())
	require.NoError(t, err)
	saved, err := s.Save(ctx, models.Task{Title: "durable", Status: models.StatusCompleted, DueDate: due})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, logrus.New())
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "durable", got.Title)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, due.Equal(got.DueDate))
}

func TestStorePing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
