package dto

import (
	"time"

	"prism-docs-api/internal/domain/entity"
)

// ArtifactResponse 产物元数据视图
type ArtifactResponse struct {
	ID          string    `json:"id"`
	OutputKind  string    `json:"output_kind"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Title       string    `json:"title,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Slides      int       `json:"slides,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewArtifactResponse 从领域产物构造视图
func NewArtifactResponse(a *entity.Artifact) *ArtifactResponse {
	return &ArtifactResponse{
		ID:          a.ID,
		OutputKind:  string(a.OutputKind),
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		Title:       a.Title,
		Pages:       a.Pages,
		Slides:      a.Slides,
		Provider:    a.Provider,
		Model:       a.Model,
		DownloadURL: "/api/v1/artifacts/" + a.ID + "/download",
		CreatedAt:   a.CreatedAt,
	}
}

// ArtifactListResponse 产物列表视图
type ArtifactListResponse struct {
	Artifacts []*ArtifactResponse `json:"artifacts"`
}
