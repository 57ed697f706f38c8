// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutputKind 产物类型
type OutputKind string

const (
	OutputKindPDF     OutputKind = "pdf"
	OutputKindPPTX    OutputKind = "pptx"
	OutputKindMindmap OutputKind = "mindmap"
	OutputKindHTML    OutputKind = "html"
)

// Valid 检查产物类型是否受支持
func (k OutputKind) Valid() bool {
	switch k {
	case OutputKindPDF, OutputKindPPTX, OutputKindMindmap, OutputKindHTML:
		return true
	}
	return false
}

// Preferences 影响产物内容的生成偏好，全部参与指纹计算
type Preferences struct {
	Audience         string  `json:"audience,omitempty"`
	ImageStyle       string  `json:"image_style,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	MaxSlides        int     `json:"max_slides,omitempty"`
	MaxSummaryPoints int     `json:"max_summary_points,omitempty"`
}

// CachePolicy 缓存策略
type CachePolicy struct {
	// Reuse 为 false 时强制绕过缓存重新构建
	Reuse bool `json:"reuse"`
}

// GenerationRequest 一次生成请求，受理后不可变
type GenerationRequest struct {
	Sources     []SourceItem `json:"sources"`
	OutputKind  OutputKind   `json:"output_kind"`
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	ImageModel  string       `json:"image_model,omitempty"`
	Preferences Preferences  `json:"preferences"`
	CachePolicy CachePolicy  `json:"cache_policy"`
}

// Stage 生成流水线阶段
type Stage string

const (
	StageIdle         Stage = "idle"
	StageDetecting    Stage = "detecting"
	StageExtracting   Stage = "extracting"
	StageTransforming Stage = "transforming"
	StageRendering    Stage = "rendering"
	StageValidating   Stage = "validating"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// StageWeights 各阶段的固定进度权重
var StageWeights = map[Stage]int{
	StageIdle:         0,
	StageDetecting:    5,
	StageExtracting:   10,
	StageTransforming: 40,
	StageRendering:    80,
	StageValidating:   95,
	StageComplete:     100,
}

// GenerationSession 单次请求的瞬态执行上下文
// 缓存未命中时创建，终态事件发布后销毁。
type GenerationSession struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Request     GenerationRequest `json:"request"`
	Stage       Stage             `json:"stage"`
	// Attempts 按阶段统计的调用次数（含首次）
	Attempts map[Stage]int `json:"attempts"`
	// RetriesUsed 跨 Transform/Render/Validate 共享的重试预算消耗
	RetriesUsed int `json:"retries_used"`
	// ContentModel 变换阶段产出的中间内容模型
	ContentModel []byte `json:"-"`
	// Errors 非致命错误的累积记录
	Errors []string `json:"errors,omitempty"`
	// LastError 最近一次失败，'Failed' 终态时作为 error 事件内容
	LastError      string     `json:"last_error,omitempty"`
	TokensPrompt   int        `json:"tokens_prompt,omitempty"`
	TokensComplete int        `json:"tokens_completion,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewGenerationSession 创建新的生成会话
func NewGenerationSession(fingerprint string, req GenerationRequest) *GenerationSession {
	return &GenerationSession{
		ID:          "gen_" + uuid.New().String(),
		Fingerprint: fingerprint,
		Request:     req,
		Stage:       StageIdle,
		Attempts:    make(map[Stage]int),
		CreatedAt:   time.Now(),
	}
}

// Enter 进入新阶段并记录一次调用
func (s *GenerationSession) Enter(stage Stage) {
	s.Stage = stage
	s.Attempts[stage]++
}

// RecordError 累积一次非致命错误
func (s *GenerationSession) RecordError(msg string) {
	s.Errors = append(s.Errors, msg)
	s.LastError = msg
}

// ConsumeRetry 消耗一次共享重试预算；预算耗尽时返回 false
func (s *GenerationSession) ConsumeRetry(maxRetries int) bool {
	if s.RetriesUsed >= maxRetries {
		return false
	}
	s.RetriesUsed++
	return true
}

// Progress 当前阶段对应的进度百分比
func (s *GenerationSession) Progress() int {
	if w, ok := StageWeights[s.Stage]; ok {
		return w
	}
	return 0
}

// Complete 标记完成
func (s *GenerationSession) Complete() {
	now := time.Now()
	s.Stage = StageComplete
	s.CompletedAt = &now
}

// Fail 标记失败
func (s *GenerationSession) Fail(msg string) {
	now := time.Now()
	s.Stage = StageFailed
	s.LastError = msg
	s.CompletedAt = &now
}

// Terminal 是否已达终态
func (s *GenerationSession) Terminal() bool {
	return s.Stage == StageComplete || s.Stage == StageFailed
}
