// Package messaging 提供基于 Redis Stream 的事件发布
package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stream 流定义
type Stream string

const (
	// StreamGenerationEvents 生成流水线终态事件流，供下游系统消费
	StreamGenerationEvents Stream = "stream:generation:events"
)

// 事件类型
const (
	EventArtifactCreated  = "artifact.created"
	EventGenerationFailed = "generation.failed"
)

// Message 流消息
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(msgType string, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        "msg_" + uuid.New().String(),
		Type:      msgType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}
