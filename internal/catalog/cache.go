// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tour-workers/internal/common/logger"
)

const SnapshotCacheKey = "catalog:snapshot"

// CachedSource keeps a JSON copy of the inner source's snapshot in Redis.
// Redis failures fall through to the inner source.
type CachedSource struct {
	inner  Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: log,
	}
}

func (s *CachedSource) Load(ctx context.Context) (*Snapshot, error) {
	cached, err := s.redis.Get(ctx, SnapshotCacheKey).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		if jsonErr := json.Unmarshal(cached, &snap); jsonErr == nil {
			return &snap, nil
		}
		s.logger.Warn("discarding malformed catalog snapshot", map[string]interface{}{
			"key": SnapshotCacheKey,
		})
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("catalog cache read failed", map[string]interface{}{
			"error": err,
		})
	}

	snap, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(snap)
	if err == nil {
		err = s.redis.Set(ctx, SnapshotCacheKey, data, s.ttl).Err()
	}
	if err != nil {
		s.logger.Warn("catalog cache write failed", map[string]interface{}{
			"error": err,
		})
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Load hits the inner source.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, SnapshotCacheKey).Err()
}
