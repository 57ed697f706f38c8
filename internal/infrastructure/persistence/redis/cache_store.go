// Package redis 提供 Redis 缓存与会话存储实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
	"prism-docs-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

const (
	cacheKeyPrefix = "gen:cache:"
	lockKeyPrefix  = "gen:lock:"
)

// CacheStore 指纹缓存的 Redis 实现
type CacheStore struct {
	client *Client
}

// NewCacheStore 创建缓存存储
func NewCacheStore(client *Client) *CacheStore {
	return &CacheStore{client: client}
}

var _ repository.CacheStore = (*CacheStore)(nil)

// Lookup 查询指纹对应的缓存条目
func (s *CacheStore) Lookup(ctx context.Context, fingerprint string) (*entity.CacheEntry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Lookup",
		trace.WithAttributes(attribute.String("cache.fingerprint", fingerprint)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, cacheKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
			return nil, repository.ErrCacheMiss
		}
		span.RecordError(err)
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	var entry entity.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		// 损坏的条目按未命中处理，重建时覆盖
		span.RecordError(err)
		metrics.CacheLookupsTotal.WithLabelValues("corrupt").Inc()
		return nil, repository.ErrCacheMiss
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return &entry, nil
}

// Store 写入缓存条目；overwrite 为 false 时用 NX 保证首个构建者胜出
func (s *CacheStore) Store(ctx context.Context, entry *entity.CacheEntry, ttl time.Duration, overwrite bool) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Store",
		trace.WithAttributes(
			attribute.String("cache.fingerprint", entry.Fingerprint),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
			attribute.Bool("cache.overwrite", overwrite),
		))
	defer span.End()

	bytes, err := json.Marshal(entry)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	key := cacheKeyPrefix + entry.Fingerprint
	if overwrite {
		err = s.client.rdb.Set(ctx, key, bytes, ttl).Err()
	} else {
		err = s.client.rdb.SetNX(ctx, key, bytes, ttl).Err()
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Invalidate 删除指纹对应的条目
func (s *CacheStore) Invalidate(ctx context.Context, fingerprint string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate",
		trace.WithAttributes(attribute.String("cache.fingerprint", fingerprint)))
	defer span.End()

	err := s.client.rdb.Del(ctx, cacheKeyPrefix+fingerprint).Err()
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// AcquireBuildLock 获取跨实例构建锁
func (s *CacheStore) AcquireBuildLock(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.AcquireBuildLock",
		trace.WithAttributes(attribute.String("cache.fingerprint", fingerprint)))
	defer span.End()

	ok, err := s.client.rdb.SetNX(ctx, lockKeyPrefix+fingerprint, time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("cache.lock_acquired", ok))
	return ok, nil
}

// ReleaseBuildLock 释放构建锁
func (s *CacheStore) ReleaseBuildLock(ctx context.Context, fingerprint string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.ReleaseBuildLock",
		trace.WithAttributes(attribute.String("cache.fingerprint", fingerprint)))
	defer span.End()

	err := s.client.rdb.Del(ctx, lockKeyPrefix+fingerprint).Err()
	if err != nil {
		span.RecordError(err)
	}
	return err
}
