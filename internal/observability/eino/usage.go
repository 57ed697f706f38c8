package eino

import (
	"context"
	"sync"
)

type usageCollectorKey struct{}

// UsageCollector 聚合一次业务操作内所有 LLM 调用的 token 消耗。
// 回调在模型调用结束时累加，编排器在操作结束时读取。
type UsageCollector struct {
	mu               sync.Mutex
	promptTokens     int
	completionTokens int
}

// WithUsageCollector 把收集器挂到上下文，随链路透传到回调
func WithUsageCollector(ctx context.Context, c *UsageCollector) context.Context {
	return context.WithValue(ctx, usageCollectorKey{}, c)
}

func usageCollectorFromContext(ctx context.Context) *UsageCollector {
	if c, ok := ctx.Value(usageCollectorKey{}).(*UsageCollector); ok {
		return c
	}
	return nil
}

// Add 累加一次调用的 token 消耗
func (c *UsageCollector) Add(promptTokens, completionTokens int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.promptTokens += promptTokens
	c.completionTokens += completionTokens
	c.mu.Unlock()
}

// Totals 读取累计消耗
func (c *UsageCollector) Totals() (promptTokens, completionTokens int) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promptTokens, c.completionTokens
}
