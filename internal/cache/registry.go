package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pickem/ingestion/internal/registry"

	"github.com/rs/zerolog/log"
)

const rosterKeyPrefix = "pickem:roster:"

// RosterSource is a cache-aside registry.Source. Cache failures fall through
// to the wrapped source.
type RosterSource struct {
	next  registry.Source
	cache *RedisCache
	ttl   time.Duration
}

// NewRosterSource caches next's rosters for ttl.
func NewRosterSource(next registry.Source, cache *RedisCache, ttl time.Duration) *RosterSource {
	return &RosterSource{next: next, cache: cache, ttl: ttl}
}

// RosterKey is the cache key holding the roster of kind.
func RosterKey(kind registry.Kind) string {
	return rosterKeyPrefix + string(kind)
}

// ListEntities implements registry.Source.
func (s *RosterSource) ListEntities(ctx context.Context, kind registry.Kind) ([]registry.Entity, error) {
	key := RosterKey(kind)

	var entities []registry.Entity
	err := s.cache.Get(ctx, key, &entities)
	if err == nil {
		log.Debug().Str("kind", string(kind)).Int("count", len(entities)).Msg("Roster served from cache")
		return entities, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("Roster cache read failed, loading from store")
	}

	entities, err = s.next.ListEntities(ctx, kind)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, entities, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Roster cache write failed")
	}
	return entities, nil
}

// Invalidate drops every cached roster so the next load hits the store.
func (s *RosterSource) Invalidate(ctx context.Context) error {
	keys := make([]string, len(registry.Kinds))
	for i, kind := range registry.Kinds {
		keys[i] = RosterKey(kind)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate rosters: %w", err)
	}
	return nil
}
