package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/schema"
)

// Loader fetches a sous chef from its source of truth
type Loader func(ctx context.Context, slug string) (*schema.SousChef, error)

// SousChefs memoizes sous chef specifications by slug
type SousChefs struct {
	cache Cache
	load  Loader
	ttl   time.Duration
	log   *zap.Logger
}

// NewSousChefs wraps cache with load. A zero ttl uses the cache default.
func NewSousChefs(cache Cache, load Loader, ttl time.Duration, log *zap.Logger) *SousChefs {
	if log == nil {
		log = zap.NewNop()
	}
	return &SousChefs{cache: cache, load: load, ttl: ttl, log: log.Named("cache")}
}

func sousChefKey(slug string) string {
	return "sous_chef:" + slug
}

// Get returns the sous chef for slug, loading and caching it on a miss. Cache
// failures fall back to the loader.
func (s *SousChefs) Get(ctx context.Context, slug string) (*schema.SousChef, error) {
	key := sousChefKey(slug)

	b, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var sc schema.SousChef
		if err := json.Unmarshal(b, &sc); err == nil {
			return &sc, nil
		}
		s.log.Warn("discarding corrupt cache entry", zap.String("slug", slug))
	case !IsMiss(err):
		s.log.Warn("cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	sc, err := s.load(ctx, slug)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sous chef '%s': %w", slug, err)
	}
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	return sc, nil
}

// Invalidate drops the cached entry for slug
func (s *SousChefs) Invalidate(ctx context.Context, slug string) error {
	return s.cache.Delete(ctx, sousChefKey(slug))
}
