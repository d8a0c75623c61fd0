// Package postgres persists tasks in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'NotStarted',
    due_date TIMESTAMPTZ NOT NULL
)`

// Store implements task persistence on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

// Open creates a pool for databaseURL, verifies it and ensures the tasks table exists.
func Open(ctx context.Context, databaseURL string, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tasks table: %w", err)
	}

	log.WithField("host", config.ConnConfig.Host).Info("postgres store ready")
	return &Store{pool: pool, log: log}, nil
}

// New wraps an existing pool. The tasks table must already exist.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, log: logrus.StandardLogger()}
}

// FindAll returns every task ordered by id.
func (s *Store) FindAll(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, description, status, due_date FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns the task with id, or false when there is none.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Task, bool, error) {
	var t models.Task
	err := s.pool.QueryRow(ctx, `SELECT id, title, description, status, due_date FROM tasks WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, false, nil
		}
		return models.Task{}, false, fmt.Errorf("failed to get task: %w", err)
	}
	return t, true, nil
}

// ExistsByID reports whether a row with id exists.
func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return exists, nil
}

// Save inserts or overwrites a task and returns the stored row.
func (s *Store) Save(ctx context.Context, t models.Task) (models.Task, error) {
	var saved models.Task
	if t.ID == 0 {
		err := s.pool.QueryRow(ctx, `
            INSERT INTO tasks (title, description, status, due_date)
            VALUES ($1, $2, $3, $4)
            RETURNING id, title, description, status, due_date`,
			t.Title, t.Description, string(t.Status), t.DueDate,
		).Scan(&saved.ID, &saved.Title, &saved.Description, &saved.Status, &saved.DueDate)
		if err != nil {
			return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
		}
		return saved, nil
	}

	err := s.pool.QueryRow(ctx, `
        INSERT INTO tasks (id, title, description, status, due_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            status = EXCLUDED.status,
            due_date = EXCLUDED.due_date
        RETURNING id, title, description, status, due_date`,
		t.ID, t.Title, t.Description, string(t.Status), t.DueDate,
	).Scan(&saved.ID, &saved.Title, &saved.Description, &saved.Status, &saved.DueDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to save task: %w", err)
	}

	// explicit ids bypass the identity sequence; move it past them
	_, err = s.pool.Exec(ctx, `SELECT setval(pg_get_serial_sequence('tasks', 'id'), GREATEST((SELECT MAX(id) FROM tasks), 1))`)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to advance id sequence: %w", err)
	}
	return saved, nil
}

// DeleteByID removes the task with id. A missing id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.log.WithField("task_id", id).Debug("delete matched no rows")
	}
	return nil
}

// Ping checks pool connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
