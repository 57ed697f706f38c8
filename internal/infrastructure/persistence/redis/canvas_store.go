// Package redis 提供 Redis 缓存与会话存储实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
)

const canvasKeyPrefix = "canvas:session:"

// CanvasStore 画布会话的 Redis 实现
type CanvasStore struct {
	client *Client
}

// NewCanvasStore 创建画布会话存储
func NewCanvasStore(client *Client) *CanvasStore {
	return &CanvasStore{client: client}
}

var _ repository.CanvasSessionStore = (*CanvasStore)(nil)

// Save 保存（覆盖）会话
func (s *CanvasStore) Save(ctx context.Context, session *entity.CanvasSession, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "canvas.Save",
		trace.WithAttributes(attribute.String("canvas.session_id", session.ID)))
	defer span.End()

	bytes, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal canvas session: %w", err)
	}

	if err := s.client.rdb.Set(ctx, canvasKeyPrefix+session.ID, bytes, ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Get 按 ID 读取会话，不存在返回 nil
func (s *CanvasStore) Get(ctx context.Context, sessionID string) (*entity.CanvasSession, error) {
	ctx, span := tracer.Start(ctx, "canvas.Get",
		trace.WithAttributes(attribute.String("canvas.session_id", sessionID)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, canvasKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, err
	}

	var session entity.CanvasSession
	if err := json.Unmarshal(val, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal canvas session: %w", err)
	}
	return &session, nil
}

// Delete 删除会话
func (s *CanvasStore) Delete(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "canvas.Delete",
		trace.WithAttributes(attribute.String("canvas.session_id", sessionID)))
	defer span.End()

	err := s.client.rdb.Del(ctx, canvasKeyPrefix+sessionID).Err()
	if err != nil {
		span.RecordError(err)
	}
	return err
}
