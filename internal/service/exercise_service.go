package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"jementraine/internal/cache"
	"jementraine/internal/domain"
	"jementraine/internal/schema"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ExerciseService hands out the current Catalog of the content store.
type ExerciseService interface {
	// Catalog returns the loaded catalog, from cache when possible.
	Catalog(ctx context.Context) (*Catalog, error)
	// Invalidate forgets every cached copy so the next Catalog call reloads from disk.
	Invalidate(ctx context.Context) error
}

type exerciseService struct {
	repo   domain.ExerciseRepository
	cache  domain.Cache // optional shared cache
	schema *schema.Schema
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	current  *Catalog
	loadedAt time.Time
	// generation is bumped by Invalidate; a load started under an older
	// generation must not publish its result.
	generation uint64
	now        func() time.Time
}

// NewExerciseService creates the catalog service. cache may be nil; ttl bounds
// both the in-process copy and the shared cache entry.
func NewExerciseService(repo domain.ExerciseRepository, c domain.Cache, s *schema.Schema, ttl time.Duration, logger *zap.Logger) ExerciseService {
	return &exerciseService{
		repo:   repo,
		cache:  c,
		schema: s,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (s *exerciseService) cacheKey() string {
	return cache.CatalogKey(s.repo.Root())
}

// Catalog implements ExerciseService
func (s *exerciseService) Catalog(ctx context.Context) (*Catalog, error) {
	s.mu.RLock()
	current, loadedAt := s.current, s.loadedAt
	s.mu.RUnlock()
	if current != nil && (s.ttl <= 0 || s.now().Sub(loadedAt) < s.ttl) {
		return current, nil
	}

	v, err, _ := s.group.Do(s.cacheKey(), func() (interface{}, error) {
		generation := s.currentGeneration()
		exercises, err := s.load(ctx, generation)
		if err != nil {
			return nil, err
		}
		catalog := NewCatalog(exercises, s.schema)

		s.mu.Lock()
		if s.generation == generation {
			s.current, s.loadedAt = catalog, s.now()
		}
		s.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

func (s *exerciseService) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *exerciseService) load(ctx context.Context, generation uint64) ([]*domain.Exercise, error) {
	key := s.cacheKey()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var exercises []*domain.Exercise
			jsonErr := json.Unmarshal([]byte(cached), &exercises)
			if jsonErr == nil {
				s.logger.Debug("Catalog cache hit", zap.String("key", key), zap.Int("count", len(exercises)))
				return exercises, nil
			}
			s.logger.Warn("Discarding undecodable catalog cache entry", zap.String("key", key), zap.Error(jsonErr))
		case errors.Is(err, domain.ErrCacheMiss):
			s.logger.Debug("Catalog cache miss", zap.String("key", key))
		default:
			s.logger.Warn("Catalog cache unavailable, loading from disk", zap.String("key", key), zap.Error(err))
		}
	}

	exercises, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load exercises", err)
	}

	if s.cache != nil {
		s.store(ctx, key, exercises, generation)
	}

	s.logger.Info("Loaded exercise catalog", zap.String("root", s.repo.Root()), zap.Int("count", len(exercises)))
	return exercises, nil
}

// store writes the loaded records to the shared cache unless an invalidation
// happened since the load started. An invalidation racing the write removes
// the entry again.
func (s *exerciseService) store(ctx context.Context, key string, exercises []*domain.Exercise, generation uint64) {
	if s.currentGeneration() != generation {
		s.logger.Debug("Catalog invalidated during load, not caching", zap.String("key", key))
		return
	}
	data, err := json.Marshal(exercises)
	if err != nil {
		s.logger.Warn("Failed to encode catalog for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		s.logger.Warn("Failed to store catalog in cache", zap.String("key", key), zap.Error(err))
		return
	}
	if s.currentGeneration() != generation {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to drop stale catalog from cache", zap.String("key", key), zap.Error(err))
		}
	}
}

// Invalidate implements ExerciseService
func (s *exerciseService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.generation++
	s.mu.Unlock()
	s.group.Forget(s.cacheKey())

	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeletePrefix(ctx, cache.CatalogPrefix()); err != nil {
		return domain.NewInternalError("Failed to invalidate catalog cache", err)
	}
	return nil
}
