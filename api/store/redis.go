package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore wraps a primary Store with a Redis read-through cache for
// request lifecycles and queue latency. Inserts go to the primary store and
// invalidate the affected entries.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) Insert(ctx context.Context, rec *Record) error {
	if err := s.primary.Insert(ctx, rec); err != nil {
		return err
	}
	s.rdb.Del(ctx, lifecycleKey("", rec.Key), lifecycleKey(rec.Queue, rec.Key), latencyKey(rec.Queue))
	return nil
}

func (s *CachedStore) GetByKey(ctx context.Context, queue, key string) ([]Record, error) {
	cacheKey := lifecycleKey(queue, key)
	if data, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var recs []Record
		if json.Unmarshal(data, &recs) == nil {
			return recs, nil
		}
	}

	recs, err := s.primary.GetByKey(ctx, queue, key)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cacheKey, recs)
	return recs, nil
}

func (s *CachedStore) Latency(ctx context.Context, queue string) (*LatencyStats, error) {
	cacheKey := latencyKey(queue)
	if data, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var stats LatencyStats
		if json.Unmarshal(data, &stats) == nil {
			return &stats, nil
		}
	}

	stats, err := s.primary.Latency(ctx, queue)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cacheKey, stats)
	return stats, nil
}

// Passthrough

func (s *CachedStore) ListByAccount(ctx context.Context, account string, limit int) ([]Record, error) {
	return s.primary.ListByAccount(ctx, account, limit)
}

func (s *CachedStore) LastHeight(ctx context.Context) (int64, error) {
	return s.primary.LastHeight(ctx)
}

func (s *CachedStore) cache(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func lifecycleKey(queue, key string) string {
	if queue == "" {
		queue = "any"
	}
	return fmt.Sprintf("router:lifecycle:%s:%s", queue, key)
}

func latencyKey(queue string) string { return fmt.Sprintf("router:latency:%s", queue) }
