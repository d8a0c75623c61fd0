package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/models"
)

const (
	dateLayout      = "2006-01-02"
	localTimeLayout = "2006-01-02T15:04:05.999999999"
)

type taskRequest struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	DueDate     string            `json:"dueDate"`
}

// fields returns the writable fields of the request as a task. The id is left
// for the caller to decide.
func (r taskRequest) fields() (models.Task, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return models.Task{}, err
	}
	status := r.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	return models.Task{
		Title:       r.Title,
		Description: r.Description,
		Status:      status,
		DueDate:     due,
	}, nil
}

// parseDueDate accepts RFC 3339 timestamps, ISO 8601 local date-times
// without an offset and plain dates. The last two are read as UTC.
func parseDueDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, localTimeLayout, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dueDate %q is not an ISO 8601 date or date-time", raw)
}

// bindTask decodes the request body, answering 400 itself on failure.
func (s *Server) bindTask(c *gin.Context) (taskRequest, models.Task, bool) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return req, models.Task{}, false
	}
	task, err := req.fields()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return req, models.Task{}, false
	}
	return req, task, true
}

// handleListTasks returns every task.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.FindAll(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleGetTask returns a single task or 404.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, found, err := s.store.FindByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if !found {
		c.Status(http.StatusNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, task)
}

// handleCreateTask stores the posted task. A zero or missing id lets the
// store assign one; a known id is overwritten.
func (s *Server) handleCreateTask(c *gin.Context) {
	req, task, ok := s.bindTask(c)
	if !ok {
		return
	}
	task.ID = req.ID

	saved, err := s.store.Save(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, saved)
}

// handleUpdateTask replaces title, description, status and due date of an
// existing task. Unknown ids are never created here.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	_, changes, ok := s.bindTask(c)
	if !ok {
		return
	}

	existing, found, err := s.store.FindByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if !found {
		c.Status(http.StatusNotFound)
		return
	}

	existing.Title = changes.Title
	existing.Description = changes.Description
	existing.Status = changes.Status
	existing.DueDate = changes.DueDate

	updated, err := s.store.Save(c.Request.Context(), existing)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}

// handleDeleteTask removes a task after confirming it exists.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	exists, err := s.store.ExistsByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if !exists {
		c.Status(http.StatusNotFound)
		return
	}

	if err := s.store.DeleteByID(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}
