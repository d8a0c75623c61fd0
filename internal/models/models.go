package models

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle label of a task. Any status may follow any other.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NotStarted"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
)

// ValidTaskStatuses enumerates the statuses a task may carry.
var ValidTaskStatuses = map[TaskStatus]struct{}{
	StatusNotStarted: {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// ParseTaskStatus returns the status named by s.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if _, ok := ValidTaskStatuses[status]; !ok {
		return "", fmt.Errorf("unknown task status %q", s)
	}
	return status, nil
}

// UnmarshalText rejects names outside ValidTaskStatuses. An empty name
// decodes to the zero status so callers can apply their default.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = ""
		return nil
	}
	status, err := ParseTaskStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Task is a single unit of work tracked by the service.
type Task struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"not null"`
	Status      TaskStatus `json:"status" gorm:"type:text;not null;default:'NotStarted'"`
	DueDate     time.Time  `json:"dueDate"`
}

// TableName keeps the gorm table aligned with the raw SQL stores.
func (Task) TableName() string {
	return "tasks"
}
