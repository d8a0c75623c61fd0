package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
	"tasktracker/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Store {
		return New()
	})
}

func TestStoreConcurrentSaves(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save(ctx, models.Task{Title: "parallel", Status: models.StatusNotStarted})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 50)
	for i, task := range tasks {
		assert.Equal(t, int64(i+1), task.ID)
	}
}
