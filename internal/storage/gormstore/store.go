// Package gormstore persists tasks through GORM on top of SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"tasktracker/internal/models"
)

// Store provides access to task storage via GORM.
type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Open connects to the SQLite database at dsn and migrates the tasks table.
// Set debug to log every statement GORM issues.
func Open(dsn string, debug bool, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dsn == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&models.Task{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithField("dsn", dsn).Info("gorm store ready")
	s := New(db)
	s.log = log
	return s, nil
}

// New wraps an already migrated connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db, log: logrus.StandardLogger()}
}

// FindAll retrieves all tasks ordered by id.
func (s *Store) FindAll(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// FindByID retrieves a task by its id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Task, bool, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, false, nil
		}
		return models.Task{}, false, fmt.Errorf("failed to find task: %w", err)
	}
	return task, true, nil
}

// ExistsByID counts matching rows instead of loading one.
func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return count > 0, nil
}

// Save creates the task, or overwrites every column when the id already exists.
func (s *Store) Save(ctx context.Context, task models.Task) (models.Task, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "status", "due_date"}),
	}).Create(&task).Error
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to save task: %w", err)
	}
	return task, nil
}

// DeleteByID removes a task. A missing id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		s.log.WithField("task_id", id).Debug("delete matched no rows")
	}
	return nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
