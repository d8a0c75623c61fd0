package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/storage"
)

// Server provides HTTP handlers for the task tracker.
type Server struct {
	engine *gin.Engine
	store  storage.TaskStore
	logger *logrus.Entry
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.TaskStore, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
	}

	// Recovery sits innermost so panics still reach the log and metrics.
	router.Use(requestID(), srv.requestLogger(), metrics(), gin.Recovery())
	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/tasks", s.handleListTasks)

	task := s.engine.Group("/task")
	{
		task.POST("", s.handleCreateTask)
		task.GET("/:id", s.handleGetTask)
		task.PUT("/:id", s.handleUpdateTask)
		task.DELETE("/:id", s.handleDeleteTask)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(c *gin.Context) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			s.log(c).WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	entry := s.log(c).WithField("path", c.FullPath()).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
