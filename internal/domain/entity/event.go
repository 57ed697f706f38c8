// Package entity 定义领域实体
package entity

// StreamEventType 进度流事件类型
type StreamEventType string

const (
	StreamEventProgress StreamEventType = "progress"
	StreamEventComplete StreamEventType = "complete"
	StreamEventCacheHit StreamEventType = "cache_hit"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent 进度流事件（标签变体）
// 每个会话恰好一个终态事件（complete/cache_hit/error）且总在最后；
// 之前可有零或多个 progress 事件，百分比单调不减。
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Stage   Stage           `json:"stage,omitempty"`
	Percent int             `json:"percent,omitempty"`
	Message string          `json:"message,omitempty"`
	// Artifact 终态 complete/cache_hit 携带的产物引用
	Artifact *ArtifactRef `json:"artifact,omitempty"`
	// Code 终态 error 携带的稳定错误码
	Code string `json:"code,omitempty"`
}

// ArtifactRef 客户端可见的产物引用
type ArtifactRef struct {
	ArtifactID  string `json:"artifact_id"`
	DownloadURL string `json:"download_url"`
	Title       string `json:"title,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Slides      int    `json:"slides,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// Terminal 是否为终态事件
func (e StreamEvent) Terminal() bool {
	switch e.Type {
	case StreamEventComplete, StreamEventCacheHit, StreamEventError:
		return true
	}
	return false
}

// NewProgressEvent 创建进度事件
func NewProgressEvent(stage Stage, percent int, message string) StreamEvent {
	return StreamEvent{
		Type:    StreamEventProgress,
		Stage:   stage,
		Percent: percent,
		Message: message,
	}
}

// NewCompleteEvent 创建完成事件
func NewCompleteEvent(ref *ArtifactRef) StreamEvent {
	return StreamEvent{
		Type:     StreamEventComplete,
		Stage:    StageComplete,
		Percent:  100,
		Artifact: ref,
	}
}

// NewCacheHitEvent 创建缓存命中事件
func NewCacheHitEvent(ref *ArtifactRef) StreamEvent {
	return StreamEvent{
		Type:     StreamEventCacheHit,
		Percent:  100,
		Artifact: ref,
	}
}

// NewErrorEvent 创建错误事件
func NewErrorEvent(code, message string) StreamEvent {
	return StreamEvent{
		Type:    StreamEventError,
		Code:    code,
		Message: message,
	}
}
