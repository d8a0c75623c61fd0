// Package storagetest holds the behaviour every task store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

// Store is the subset of the store contract exercised here.
type Store interface {
	FindAll(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id int64) (models.Task, bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, t models.Task) (models.Task, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Run exercises a fresh, empty store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	due := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)

		tasks, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)

		_, found, err := s.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)

		exists, err := s.ExistsByID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("save assigns id", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Save(ctx, models.Task{Title: "One", Description: "Desc1", Status: models.StatusNotStarted, DueDate: due})
		require.NoError(t, err)
		assert.Positive(t, saved.ID)
		assert.Equal(t, "One", saved.Title)
		assert.Equal(t, "Desc1", saved.Description)
		assert.Equal(t, models.StatusNotStarted, saved.Status)
		assert.True(t, due.Equal(saved.DueDate), "due date %s, want %s", saved.DueDate, due)

		got, found, err := s.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, saved.Title, got.Title)
		assert.True(t, due.Equal(got.DueDate))

		second, err := s.Save(ctx, models.Task{Title: "Two", Status: models.StatusInProgress, DueDate: due})
		require.NoError(t, err)
		assert.NotEqual(t, saved.ID, second.ID)
	})

	t.Run("save keeps explicit id", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Save(ctx, models.Task{ID: 42, Title: "Answer", Status: models.StatusCompleted, DueDate: due})
		require.NoError(t, err)
		assert.Equal(t, int64(42), saved.ID)

		exists, err := s.ExistsByID(ctx, 42)
		require.NoError(t, err)
		assert.True(t, exists)

		next, err := s.Save(ctx, models.Task{Title: "After", Status: models.StatusNotStarted, DueDate: due})
		require.NoError(t, err)
		assert.NotEqual(t, int64(42), next.ID)
	})

	t.Run("save overwrites existing", func(t *testing.T) {
		s := newStore(t)

		orig, err := s.Save(ctx, models.Task{Title: "Existing Task", Description: "Description", Status: models.StatusNotStarted, DueDate: due})
		require.NoError(t, err)

		later := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		updated, err := s.Save(ctx, models.Task{ID: orig.ID, Title: "Updated Task", Description: "New Description", Status: models.StatusInProgress, DueDate: later})
		require.NoError(t, err)
		assert.Equal(t, orig.ID, updated.ID)

		got, found, err := s.FindByID(ctx, orig.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Updated Task", got.Title)
		assert.Equal(t, "New Description", got.Description)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.True(t, later.Equal(got.DueDate))

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("find all in id order", func(t *testing.T) {
		s := newStore(t)

		for _, title := range []string{"a", "b", "c"} {
			_, err := s.Save(ctx, models.Task{Title: title, Status: models.StatusNotStarted, DueDate: due})
			require.NoError(t, err)
		}

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "a", all[0].Title)
		assert.Equal(t, "b", all[1].Title)
		assert.Equal(t, "c", all[2].Title)
		assert.Less(t, all[0].ID, all[1].ID)
		assert.Less(t, all[1].ID, all[2].ID)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)

		saved, err := s.Save(ctx, models.Task{Title: "gone soon", Status: models.StatusNotStarted, DueDate: due})
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, saved.ID))

		exists, err := s.ExistsByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		_, found, err := s.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, found)

		assert.NoError(t, s.DeleteByID(ctx, saved.ID), "deleting a missing id")
	})
}
