package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/domain/entity"
)

func TestGenerateRequestToEntity(t *testing.T) {
	req := GenerateRequest{
		Sources: []SourceRequest{
			{Type: "text", Category: "primary", Content: "hello"},
			{Type: "url", URL: "https://example.com"},
		},
		OutputKind: "pptx",
		Provider:   "openai",
		Model:      "gpt-4o",
		Preferences: PreferencesRequest{
			Audience:  "executives",
			MaxSlides: 12,
		},
		APIKey: "sk-secret",
	}

	got := req.ToEntity()
	assert.Equal(t, entity.OutputKindPPTX, got.OutputKind)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, entity.SourceCategoryPrimary, got.Sources[0].Category)
	assert.Equal(t, "executives", got.Preferences.Audience)
	assert.Equal(t, 12, got.Preferences.MaxSlides)
	// 缺省复用缓存
	assert.True(t, got.CachePolicy.Reuse)
}

func TestGenerateRequestCacheReuse(t *testing.T) {
	reuse := false
	req := GenerateRequest{Cache: CacheRequest{Reuse: &reuse}}
	assert.False(t, req.ToEntity().CachePolicy.Reuse)
}

func TestGenerateRequestReuseDefaultFromJSON(t *testing.T) {
	var req GenerateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sources": [], "output_kind": "pdf", "cache": {}}`), &req))
	assert.True(t, req.ToEntity().CachePolicy.Reuse)

	require.NoError(t, json.Unmarshal([]byte(`{"sources": [], "output_kind": "pdf", "cache": {"reuse": false}}`), &req))
	assert.False(t, req.ToEntity().CachePolicy.Reuse)
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		in       PageRequest
		page     int
		pageSize int
	}{
		{PageRequest{Page: 0, PageSize: 0}, 1, 20},
		{PageRequest{Page: -3, PageSize: 500}, 1, 100},
		{PageRequest{Page: 2, PageSize: 50}, 2, 50},
	}
	for _, tt := range tests {
		tt.in.Normalize()
		assert.Equal(t, tt.page, tt.in.Page)
		assert.Equal(t, tt.pageSize, tt.in.PageSize)
	}
}
