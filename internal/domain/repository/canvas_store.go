// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"prism-docs-api/internal/domain/entity"
)

// CanvasSessionStore 画布会话存储
// 历史在每次模型调用之前持久化，保证中途失败不丢失已提交的回答。
type CanvasSessionStore interface {
	// Save 保存（覆盖）会话
	Save(ctx context.Context, session *entity.CanvasSession, ttl time.Duration) error

	// Get 按 ID 读取会话，不存在返回 nil
	Get(ctx context.Context, sessionID string) (*entity.CanvasSession, error)

	// Delete 删除会话
	Delete(ctx context.Context, sessionID string) error
}
