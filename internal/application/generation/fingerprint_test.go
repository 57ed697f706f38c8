package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/domain/entity"
)

func baseRequest() *entity.GenerationRequest {
	return &entity.GenerationRequest{
		OutputKind: entity.OutputKindPDF,
		Provider:   "openai",
		Model:      "gpt-4o",
		Sources: []entity.SourceItem{
			{Type: entity.SourceTypeText, Content: "hello world"},
			{Type: entity.SourceTypeURL, URL: "https://example.com/doc"},
		},
		Preferences: entity.Preferences{Audience: "engineers", Temperature: 0.7},
	}
}

func TestComputeFingerprintStable(t *testing.T) {
	a := ComputeFingerprint(baseRequest())
	b := ComputeFingerprint(baseRequest())
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestComputeFingerprintSourceOrderIrrelevant(t *testing.T) {
	req := baseRequest()
	a := ComputeFingerprint(req)

	req.Sources[0], req.Sources[1] = req.Sources[1], req.Sources[0]
	b := ComputeFingerprint(req)

	assert.Equal(t, a, b)
}

func TestComputeFingerprintCategoryExcluded(t *testing.T) {
	// 分组只影响提示词拼装，不参与指纹
	req := baseRequest()
	a := ComputeFingerprint(req)

	req.Sources[0].Category = entity.SourceCategoryPrimary
	req.Sources[1].Category = entity.SourceCategoryReference
	b := ComputeFingerprint(req)

	assert.Equal(t, a, b)
}

func TestComputeFingerprintURLNormalized(t *testing.T) {
	req := baseRequest()
	a := ComputeFingerprint(req)

	req.Sources[1].URL = "  https://example.com/doc/ "
	b := ComputeFingerprint(req)

	assert.Equal(t, a, b)
}

func TestComputeFingerprintFileDigestWins(t *testing.T) {
	// 文件源以内容摘要为准，重命名重传不改变指纹
	mk := func(fileID string) *entity.GenerationRequest {
		return &entity.GenerationRequest{
			OutputKind: entity.OutputKindHTML,
			Sources: []entity.SourceItem{
				{Type: entity.SourceTypeFile, FileID: fileID, Digest: "sha256:abc123"},
			},
		}
	}
	assert.Equal(t, ComputeFingerprint(mk("file_1")), ComputeFingerprint(mk("file_2")))
}

func TestComputeFingerprintSensitivity(t *testing.T) {
	base := ComputeFingerprint(baseRequest())

	kind := baseRequest()
	kind.OutputKind = entity.OutputKindPPTX
	assert.NotEqual(t, base, ComputeFingerprint(kind))

	model := baseRequest()
	model.Model = "gpt-4o-mini"
	assert.NotEqual(t, base, ComputeFingerprint(model))

	prefs := baseRequest()
	prefs.Preferences.MaxSlides = 12
	assert.NotEqual(t, base, ComputeFingerprint(prefs))

	content := baseRequest()
	content.Sources[0].Content = "hello world!"
	assert.NotEqual(t, base, ComputeFingerprint(content))
}

func TestComputeFingerprintCachePolicyExcluded(t *testing.T) {
	// 缓存策略不改变请求的身份
	req := baseRequest()
	a := ComputeFingerprint(req)

	req.CachePolicy.Reuse = true
	b := ComputeFingerprint(req)

	assert.Equal(t, a, b)
}

func TestComputeFingerprintTextAliasByContent(t *testing.T) {
	mk := func(content string) *entity.GenerationRequest {
		return &entity.GenerationRequest{
			OutputKind: entity.OutputKindMindmap,
			Sources:    []entity.SourceItem{{Type: entity.SourceTypeText, Content: content}},
		}
	}
	assert.Equal(t, ComputeFingerprint(mk("same text")), ComputeFingerprint(mk("same text")))
	assert.NotEqual(t, ComputeFingerprint(mk("same text")), ComputeFingerprint(mk("other text")))
}
