// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"
	"time"

	"prism-docs-api/internal/domain/entity"
)

// ErrCacheMiss 指纹未命中
var ErrCacheMiss = errors.New("cache entry not found")

// CacheStore 指纹缓存存储
// 读取对任意指纹无等待；同一指纹的写入经由单写者路径：
// 第一个到达 Complete 的会话胜出，之后的相同会话应短路到既有条目。
type CacheStore interface {
	// Lookup 查询缓存条目，未命中返回 ErrCacheMiss
	Lookup(ctx context.Context, fingerprint string) (*entity.CacheEntry, error)

	// Store 写入缓存条目
	// overwrite 为 false 时幂等：键已存在则不落盘（NX 语义）。
	Store(ctx context.Context, entry *entity.CacheEntry, ttl time.Duration, overwrite bool) error

	// Invalidate 删除指纹对应的条目
	Invalidate(ctx context.Context, fingerprint string) error

	// AcquireBuildLock 获取跨实例构建锁；已被占用时返回 false
	AcquireBuildLock(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)

	// ReleaseBuildLock 释放构建锁
	ReleaseBuildLock(ctx context.Context, fingerprint string) error
}
