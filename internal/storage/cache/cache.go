// Package cache puts a Redis cache-aside layer in front of a task store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tasktracker/internal/models"
)

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "task_cache_lookups_total",
		Help: "Task cache lookups by result",
	},
	[]string{"result"},
)

// Backing is the store the cache reads through to and writes through to.
type Backing interface {
	FindAll(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id int64) (models.Task, bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, t models.Task) (models.Task, error)
	DeleteByID(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Store serves reads from Redis when possible and invalidates on every write.
// Redis failures are logged and the backing store answers instead.
//
// writes is bumped before and after every write; a load that saw it move is
// returned to its caller but not cached, so a slow read cannot put back a row
// that a concurrent write just replaced or deleted.
type Store struct {
	next    Backing
	writes  atomic.Uint64
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	sfGroup singleflight.Group
	log     logrus.FieldLogger
}

// New wraps next with a cache held in client.
func New(next Backing, client *redis.Client, prefix string, ttl time.Duration, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

func (s *Store) keyByID(id int64) string {
	return s.prefix + "task:" + strconv.FormatInt(id, 10)
}

func (s *Store) keyList() string {
	return s.prefix + "tasks"
}

func (s *Store) get(ctx context.Context, key string, dest any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			lookups.WithLabelValues("miss").Inc()
			return false
		}
		lookups.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		lookups.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("key", key).Warn("cache entry unreadable")
		return false
	}
	lookups.WithLabelValues("hit").Inc()
	return true
}

func (s *Store) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache marshal failed")
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (s *Store) invalidate(ctx context.Context, id int64) {
	s.writes.Add(1)
	if err := s.client.Del(ctx, s.keyByID(id), s.keyList()).Err(); err != nil {
		s.log.WithError(err).WithField("task_id", id).Warn("cache invalidation failed")
	}
}

// FindAll returns the cached task list, loading it on a miss.
func (s *Store) FindAll(ctx context.Context) ([]models.Task, error) {
	var cached []models.Task
	if s.get(ctx, s.keyList(), &cached) {
		return cached, nil
	}

	gen := s.writes.Load()
	val, err, _ := s.sfGroup.Do(s.keyList(), func() (any, error) {
		// shared by every caller in the flight, so one disconnect must not fail the rest
		return s.next.FindAll(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	tasks := val.([]models.Task)
	if s.writes.Load() == gen {
		s.set(ctx, s.keyList(), tasks)
	}
	return tasks, nil
}

// FindByID returns the cached task, loading it on a miss. Absent ids are not cached.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Task, bool, error) {
	key := s.keyByID(id)

	var cached models.Task
	if s.get(ctx, key, &cached) {
		return cached, true, nil
	}

	type result struct {
		task  models.Task
		found bool
	}
	gen := s.writes.Load()
	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		t, found, err := s.next.FindByID(context.WithoutCancel(ctx), id)
		return result{task: t, found: found}, err
	})
	if err != nil {
		return models.Task{}, false, err
	}

	r := val.(result)
	if r.found && s.writes.Load() == gen {
		s.set(ctx, key, r.task)
	}
	return r.task, r.found, nil
}

// ExistsByID always asks the backing store. Delete relies on it, and a stale
// cache entry must never make a deleted task look present.
func (s *Store) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return s.next.ExistsByID(ctx, id)
}

// Save writes through and drops the affected cache entries.
func (s *Store) Save(ctx context.Context, t models.Task) (models.Task, error) {
	s.writes.Add(1)
	saved, err := s.next.Save(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	s.invalidate(ctx, saved.ID)
	return saved, nil
}

// DeleteByID deletes through and drops the affected cache entries.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	s.writes.Add(1)
	if err := s.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Ping checks both Redis and the backing store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return s.next.Ping(ctx)
}

// Close closes the Redis client and then the backing store.
func (s *Store) Close() error {
	return errors.Join(s.client.Close(), s.next.Close())
}
