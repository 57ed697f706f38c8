// Package entity 定义领域实体
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SourceType 输入源类型
type SourceType string

const (
	SourceTypeText SourceType = "text"
	SourceTypeURL  SourceType = "url"
	SourceTypeFile SourceType = "file"
)

// SourceCategory 输入源分组
type SourceCategory string

const (
	SourceCategoryPrimary    SourceCategory = "primary"
	SourceCategorySupporting SourceCategory = "supporting"
	SourceCategoryReference  SourceCategory = "reference"
	SourceCategoryData       SourceCategory = "data"
)

// SourceItem 单个输入源（text/url/file 三选一）
type SourceItem struct {
	Type     SourceType     `json:"type"`
	Category SourceCategory `json:"category,omitempty"`
	// Content 内联文本内容（type=text）
	Content string `json:"content,omitempty"`
	// URL 网页地址（type=url）
	URL string `json:"url,omitempty"`
	// FileID 已上传文件的引用（type=file）
	FileID string `json:"file_id,omitempty"`
	// Digest 文件内容摘要，上传时计算；指纹以内容而非文件名为准
	Digest string `json:"digest,omitempty"`
}

// Validate 校验输入源的变体字段
func (s SourceItem) Validate() bool {
	switch s.Type {
	case SourceTypeText:
		return strings.TrimSpace(s.Content) != ""
	case SourceTypeURL:
		return strings.TrimSpace(s.URL) != ""
	case SourceTypeFile:
		return strings.TrimSpace(s.FileID) != ""
	default:
		return false
	}
}

// CanonicalKey 返回参与指纹计算的稳定键
// 文本源按内容哈希，URL 源按规整后的地址，文件源按内容摘要。
func (s SourceItem) CanonicalKey() string {
	switch s.Type {
	case SourceTypeText:
		sum := sha256.Sum256([]byte(s.Content))
		return "text:" + hex.EncodeToString(sum[:])
	case SourceTypeURL:
		return "url:" + strings.TrimRight(strings.TrimSpace(s.URL), "/")
	case SourceTypeFile:
		if s.Digest != "" {
			return "file:" + s.Digest
		}
		return "file:" + s.FileID
	default:
		return ""
	}
}
