package dto

import (
	"prism-docs-api/internal/domain/entity"
)

// SourceRequest 单个输入源
type SourceRequest struct {
	Type     string `json:"type" binding:"required"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content,omitempty"`
	URL      string `json:"url,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// PreferencesRequest 生成偏好
type PreferencesRequest struct {
	Audience         string  `json:"audience,omitempty"`
	ImageStyle       string  `json:"image_style,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	MaxSlides        int     `json:"max_slides,omitempty"`
	MaxSummaryPoints int     `json:"max_summary_points,omitempty"`
}

// CacheRequest 缓存策略
type CacheRequest struct {
	// Reuse 缺省 true；显式 false 时绕过缓存强制重建
	Reuse *bool `json:"reuse,omitempty"`
}

// GenerateRequest 生成请求
// APIKey 随请求传入，只转发给指定提供方，不落日志不落存储。
type GenerateRequest struct {
	Sources     []SourceRequest    `json:"sources" binding:"required"`
	OutputKind  string             `json:"output_kind" binding:"required"`
	Provider    string             `json:"provider,omitempty"`
	Model       string             `json:"model,omitempty"`
	ImageModel  string             `json:"image_model,omitempty"`
	Preferences PreferencesRequest `json:"preferences,omitempty"`
	Cache       CacheRequest       `json:"cache,omitempty"`
	APIKey      string             `json:"api_key,omitempty"`
}

// ToEntity 转换为领域请求；凭据不进入领域对象
func (r *GenerateRequest) ToEntity() entity.GenerationRequest {
	sources := make([]entity.SourceItem, 0, len(r.Sources))
	for _, s := range r.Sources {
		sources = append(sources, entity.SourceItem{
			Type:     entity.SourceType(s.Type),
			Category: entity.SourceCategory(s.Category),
			Content:  s.Content,
			URL:      s.URL,
			FileID:   s.FileID,
			Digest:   s.Digest,
		})
	}
	reuse := true
	if r.Cache.Reuse != nil {
		reuse = *r.Cache.Reuse
	}
	return entity.GenerationRequest{
		Sources:    sources,
		OutputKind: entity.OutputKind(r.OutputKind),
		Provider:   r.Provider,
		Model:      r.Model,
		ImageModel: r.ImageModel,
		Preferences: entity.Preferences{
			Audience:         r.Preferences.Audience,
			ImageStyle:       r.Preferences.ImageStyle,
			Temperature:      r.Preferences.Temperature,
			MaxTokens:        r.Preferences.MaxTokens,
			MaxSlides:        r.Preferences.MaxSlides,
			MaxSummaryPoints: r.Preferences.MaxSummaryPoints,
		},
		CachePolicy: entity.CachePolicy{Reuse: reuse},
	}
}

// FingerprintResponse 指纹预检响应
type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
}
