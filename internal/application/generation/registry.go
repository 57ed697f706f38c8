package generation

import (
	"context"

	"golang.org/x/sync/singleflight"

	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/pkg/metrics"
)

// BuildRegistry 进程内构建注册表
// 同一指纹最多一个在建流水线；后到的相同请求挂在既有构建上等待，
// 共享首个构建者的结果，不重复消耗模型调用。
type BuildRegistry struct {
	group singleflight.Group
}

// NewBuildRegistry 创建构建注册表
func NewBuildRegistry() *BuildRegistry {
	return &BuildRegistry{}
}

// BuildResult 构建结果
type BuildResult struct {
	Entry *entity.CacheEntry
	// Shared 为 true 表示本请求未执行构建，结果来自并发的同指纹构建
	Shared bool
}

// Do 以指纹为键合并并发构建
// fn 只在首个请求中执行；等待期间 ctx 取消时返回 ctx.Err()，
// 在建流水线本身不受等待者取消影响。
func (r *BuildRegistry) Do(ctx context.Context, fingerprint string, fn func() (*entity.CacheEntry, error)) (*BuildResult, error) {
	ch := r.group.DoChan(fingerprint, func() (interface{}, error) {
		return fn()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		entry, _ := res.Val.(*entity.CacheEntry)
		if res.Shared {
			metrics.BuildsCoalescedTotal.Inc()
		}
		return &BuildResult{Entry: entry, Shared: res.Shared}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget 移除指纹的在建记录，下一次请求重新构建
func (r *BuildRegistry) Forget(fingerprint string) {
	r.group.Forget(fingerprint)
}
