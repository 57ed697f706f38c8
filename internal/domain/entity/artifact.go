// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Artifact 渲染产出的文件及其元数据
type Artifact struct {
	ID          string     `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	OutputKind  OutputKind `json:"output_kind"`
	// Location 产物在输出目录/对象存储中的位置
	Location    string `json:"location"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Title       string `json:"title,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Slides      int    `json:"slides,omitempty"`

	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	TokensPrompt   int    `json:"tokens_prompt,omitempty"`
	TokensComplete int    `json:"tokens_completion,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewArtifact 创建产物记录
func NewArtifact(fingerprint string, kind OutputKind, location, contentType string, size int64) *Artifact {
	return &Artifact{
		ID:          "art_" + uuid.New().String(),
		Fingerprint: fingerprint,
		OutputKind:  kind,
		Location:    location,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAt:   time.Now(),
	}
}

// CacheEntry 指纹到产物的缓存条目
// 首次成功构建时创建，只读共享，只被显式绕过的新条目取代，从不原地修改。
type CacheEntry struct {
	Fingerprint    string     `json:"fingerprint"`
	ArtifactID     string     `json:"artifact_id"`
	Location       string     `json:"location"`
	OutputKind     OutputKind `json:"output_kind"`
	Title          string     `json:"title,omitempty"`
	Pages          int        `json:"pages,omitempty"`
	Slides         int        `json:"slides,omitempty"`
	TokensPrompt   int        `json:"tokens_prompt,omitempty"`
	TokensComplete int        `json:"tokens_completion,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewCacheEntry 从产物构造缓存条目
func NewCacheEntry(a *Artifact) *CacheEntry {
	return &CacheEntry{
		Fingerprint:    a.Fingerprint,
		ArtifactID:     a.ID,
		Location:       a.Location,
		OutputKind:     a.OutputKind,
		Title:          a.Title,
		Pages:          a.Pages,
		Slides:         a.Slides,
		TokensPrompt:   a.TokensPrompt,
		TokensComplete: a.TokensComplete,
		CreatedAt:      a.CreatedAt,
	}
}
