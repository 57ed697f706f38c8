// Package generation 实现生成流水线的编排
package generation

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
)

// Extractor 文本抽取网关
type Extractor interface {
	Extract(ctx context.Context, sources []entity.SourceItem) ([]wfmodel.SourceText, error)
}

// Renderer 渲染网关
type Renderer interface {
	Render(ctx context.Context, kind string, content *wfmodel.ContentModel) (*render.Result, error)
}

// Transformer 内容模型转换链
type Transformer interface {
	Invoke(ctx context.Context, in *wfmodel.TransformInput) (*schema.Message, error)
}

// ArtifactStore 产物文件存储
type ArtifactStore interface {
	Save(ctx context.Context, artifactID, kind string, data []byte) (string, error)
	Remove(ctx context.Context, location string) error
}

// LifecycleEvents 终态事件对外发布（Redis Stream 等）
// 实现必须尽力而为，不得阻塞或失败流水线。
type LifecycleEvents interface {
	ArtifactCreated(ctx context.Context, artifact *entity.Artifact)
	GenerationFailed(ctx context.Context, fingerprint, outputKind, code string)
}

// EventSink 进度事件出口
// 编排器保证：progress 按阶段顺序推送，终态事件恰好一个且总在最后。
type EventSink interface {
	Publish(event entity.StreamEvent)
}

// EventSinkFunc 函数式 EventSink
type EventSinkFunc func(event entity.StreamEvent)

// Publish 实现 EventSink
func (f EventSinkFunc) Publish(event entity.StreamEvent) {
	f(event)
}
