// Package memory holds tasks in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"tasktracker/internal/models"
)

// Store is a map-backed task store safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tasks  map[int64]models.Task
	nextID int64
}

// New returns an empty store.
func New() *Store {
	return &Store{tasks: make(map[int64]models.Task)}
}

// FindAll returns every task ordered by id.
func (s *Store) FindAll(_ context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// FindByID looks a task up by id.
func (s *Store) FindByID(_ context.Context, id int64) (models.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	return t, ok, nil
}

// ExistsByID reports whether a task with id is stored.
func (s *Store) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tasks[id]
	return ok, nil
}

// Save inserts t, assigning the next id when t.ID is zero, or overwrites the
// task stored under t.ID.
func (s *Store) Save(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		s.nextID++
		t.ID = s.nextID
	} else if t.ID > s.nextID {
		s.nextID = t.ID
	}
	s.tasks[t.ID] = t
	return t, nil
}

// DeleteByID removes the task with id if present.
func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
