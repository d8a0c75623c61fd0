package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/models"
)

const taskColumns = `id, title, description, status, due_date`

// Store wraps access to the SQLite database and exposes the task operations.
type Store struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger logrus.FieldLogger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.WithField("path", dbPath).Info("sqlite store ready")
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'NotStarted',
            due_date DATETIME NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// FindAll retrieves all tasks ordered by id.
func (s *Store) FindAll(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// FindByID retrieves a task by id. A missing row is reported through the bool.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Task, bool, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, false, nil
	}
	if err != nil {
		return models.Task{}, false, fmt.Errorf("get task: %w", err)
	}
	return t, true, nil
}

// ExistsByID checks for a task without loading it.
func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("task exists: %w", err)
	}
	return exists, nil
}

// Save inserts a task, letting SQLite assign the id when t.ID is zero, or
// replaces every column of the row with the same id.
func (s *Store) Save(ctx context.Context, t models.Task) (models.Task, error) {
	id := t.ID
	if id == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(title, description, status, due_date) VALUES(?, ?, ?, ?)`,
			t.Title, t.Description, string(t.Status), t.DueDate)
		if err != nil {
			return models.Task{}, fmt.Errorf("insert task: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return models.Task{}, fmt.Errorf("task id: %w", err)
		}
	} else {
		_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, title, description, status, due_date) VALUES(?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                title = excluded.title,
                description = excluded.description,
                status = excluded.status,
                due_date = excluded.due_date`,
			id, t.Title, t.Description, string(t.Status), t.DueDate)
		if err != nil {
			return models.Task{}, fmt.Errorf("save task: %w", err)
		}
	}

	saved, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !ok {
		return models.Task{}, fmt.Errorf("save task: row %d vanished after write", id)
	}
	return saved, nil
}

// DeleteByID removes a task by id. Deleting a missing id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.logger.WithField("task_id", id).Debug("delete matched no rows")
	}
	return nil
}
