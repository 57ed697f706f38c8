package messaging

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
	"prism-docs-api/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// artifactCreatedPayload 产物创建事件载荷
type artifactCreatedPayload struct {
	ArtifactID  string    `json:"artifact_id"`
	Fingerprint string    `json:"fingerprint"`
	OutputKind  string    `json:"output_kind"`
	Title       string    `json:"title,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// generationFailedPayload 生成失败事件载荷
type generationFailedPayload struct {
	Fingerprint string `json:"fingerprint"`
	OutputKind  string `json:"output_kind"`
	Code        string `json:"code"`
}

// GenerationEvents 生成流水线事件发布器
// 发布尽力而为：失败只记日志，绝不阻塞或失败流水线本身。
type GenerationEvents struct {
	producer *Producer
}

// NewGenerationEvents 创建生成事件发布器
func NewGenerationEvents(producer *Producer) *GenerationEvents {
	return &GenerationEvents{producer: producer}
}

// ArtifactCreated 发布产物创建事件
func (e *GenerationEvents) ArtifactCreated(ctx context.Context, artifact *entity.Artifact) {
	if e == nil || e.producer == nil {
		return
	}
	msg, err := NewMessage(EventArtifactCreated, artifactCreatedPayload{
		ArtifactID:  artifact.ID,
		Fingerprint: artifact.Fingerprint,
		OutputKind:  string(artifact.OutputKind),
		Title:       artifact.Title,
		SizeBytes:   artifact.SizeBytes,
		CreatedAt:   artifact.CreatedAt,
	})
	if err != nil {
		logger.Warn(ctx, "failed to build artifact event", "error", err.Error())
		return
	}
	if _, err := e.producer.Publish(ctx, StreamGenerationEvents, msg); err != nil {
		logger.Warn(ctx, "failed to publish artifact event", "error", err.Error())
	}
}

// GenerationFailed 发布生成失败事件
func (e *GenerationEvents) GenerationFailed(ctx context.Context, fingerprint, outputKind, code string) {
	if e == nil || e.producer == nil {
		return
	}
	msg, err := NewMessage(EventGenerationFailed, generationFailedPayload{
		Fingerprint: fingerprint,
		OutputKind:  outputKind,
		Code:        code,
	})
	if err != nil {
		logger.Warn(ctx, "failed to build failure event", "error", err.Error())
		return
	}
	if _, err := e.producer.Publish(ctx, StreamGenerationEvents, msg); err != nil {
		logger.Warn(ctx, "failed to publish failure event", "error", err.Error())
	}
}
