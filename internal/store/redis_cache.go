package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/record-service-go/internal/record"
	"go.uber.org/zap"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// Records are never deleted or renamed, so a cached entry can only lag on UpdatedAt.
type RedisCacheRepository struct {
	store  record.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store record.Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "record:",
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a record by name, checking cache first.
func (r *RedisCacheRepository) Get(ctx context.Context, name string) (*record.Record, error) {
	if rec, err := r.getFromCache(ctx, name); err == nil {
		return rec, nil
	}

	rec, err := r.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cacheRecord(ctx, rec)

	return rec, nil
}

// Set writes the record through to the underlying store and refreshes the cache.
func (r *RedisCacheRepository) Set(ctx context.Context, name string) (*record.Record, bool, error) {
	rec, created, err := r.store.Set(ctx, name)
	if err != nil {
		return nil, false, err
	}

	r.cacheRecord(ctx, rec)

	return rec, created, nil
}

// Ping checks the underlying store when it supports it.
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	if p, ok := r.store.(record.Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Shutdown releases the wrapped store when it owns resources.
func (r *RedisCacheRepository) Shutdown() error {
	if s, ok := r.store.(interface{ Shutdown() error }); ok {
		return s.Shutdown()
	}

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, name string) (*record.Record, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+name).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, record.ErrNotFound
	}

	id, err := strconv.ParseInt(result["id"], 10, 64)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time

	if ts, ok := result["updated_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			updatedAt = time.Unix(0, nanos).UTC()
		}
	}

	return &record.Record{
		ID:        id,
		Name:      result["name"],
		UpdatedAt: updatedAt,
	}, nil
}

func (r *RedisCacheRepository) cacheRecord(ctx context.Context, rec *record.Record) {
	pipe := r.client.Pipeline()
	key := r.prefix + rec.Name

	pipe.HSet(ctx, key, map[string]interface{}{
		"id":         rec.ID,
		"name":       rec.Name,
		"updated_at": rec.UpdatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("failed to cache record", zap.String("name", rec.Name), zap.Error(err))
	}
}

// Compile-time checks.
var (
	_ record.Repository = (*RedisCacheRepository)(nil)
	_ record.Pinger     = (*RedisCacheRepository)(nil)
)
