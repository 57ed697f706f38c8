package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationSessionLifecycle(t *testing.T) {
	session := NewGenerationSession("fp", GenerationRequest{OutputKind: OutputKindPDF})

	assert.True(t, strings.HasPrefix(session.ID, "gen_"))
	assert.Equal(t, StageIdle, session.Stage)
	assert.False(t, session.Terminal())

	session.Enter(StageDetecting)
	assert.Equal(t, 5, session.Progress())
	session.Enter(StageTransforming)
	session.Enter(StageTransforming)
	assert.Equal(t, 2, session.Attempts[StageTransforming])
	assert.Equal(t, 40, session.Progress())

	session.Complete()
	assert.True(t, session.Terminal())
	assert.Equal(t, 100, session.Progress())
	require.NotNil(t, session.CompletedAt)
}

func TestGenerationSessionRetryBudget(t *testing.T) {
	session := NewGenerationSession("fp", GenerationRequest{})

	// 预算跨阶段共享
	assert.True(t, session.ConsumeRetry(3))
	assert.True(t, session.ConsumeRetry(3))
	assert.True(t, session.ConsumeRetry(3))
	assert.False(t, session.ConsumeRetry(3))
	assert.Equal(t, 3, session.RetriesUsed)
}

func TestGenerationSessionFail(t *testing.T) {
	session := NewGenerationSession("fp", GenerationRequest{})
	session.RecordError("first")
	session.RecordError("second")
	session.Fail("final")

	assert.Equal(t, StageFailed, session.Stage)
	assert.Equal(t, "final", session.LastError)
	assert.Equal(t, []string{"first", "second"}, session.Errors)
	assert.True(t, session.Terminal())
	assert.Equal(t, 0, session.Progress())
}

func TestOutputKindValid(t *testing.T) {
	for _, k := range []OutputKind{OutputKindPDF, OutputKindPPTX, OutputKindMindmap, OutputKindHTML} {
		assert.True(t, k.Valid())
	}
	assert.False(t, OutputKind("docx").Valid())
	assert.False(t, OutputKind("").Valid())
}

func TestStageWeightsMonotone(t *testing.T) {
	order := []Stage{StageIdle, StageDetecting, StageExtracting, StageTransforming, StageRendering, StageValidating, StageComplete}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, StageWeights[order[i]], StageWeights[order[i-1]])
	}
}

func TestStreamEventTerminal(t *testing.T) {
	assert.False(t, NewProgressEvent(StageRendering, 80, "rendering").Terminal())
	assert.True(t, NewCompleteEvent(&ArtifactRef{ArtifactID: "art_1"}).Terminal())
	assert.True(t, NewCacheHitEvent(&ArtifactRef{ArtifactID: "art_1"}).Terminal())
	assert.True(t, NewErrorEvent("generation_failed", "boom").Terminal())
}

func TestNewCacheEntryCopiesArtifact(t *testing.T) {
	artifact := NewArtifact("fp", OutputKindPPTX, "art_1.pptx", "application/vnd.ms-powerpoint", 1024)
	artifact.Title = "Deck"
	artifact.Slides = 9

	entry := NewCacheEntry(artifact)
	assert.Equal(t, artifact.ID, entry.ArtifactID)
	assert.Equal(t, "fp", entry.Fingerprint)
	assert.Equal(t, OutputKindPPTX, entry.OutputKind)
	assert.Equal(t, "Deck", entry.Title)
	assert.Equal(t, 9, entry.Slides)
}

func TestSourceItemValidate(t *testing.T) {
	assert.True(t, SourceItem{Type: SourceTypeText, Content: "hi"}.Validate())
	assert.False(t, SourceItem{Type: SourceTypeText, Content: "  "}.Validate())
	assert.True(t, SourceItem{Type: SourceTypeURL, URL: "https://example.com"}.Validate())
	assert.False(t, SourceItem{Type: SourceTypeURL}.Validate())
	assert.True(t, SourceItem{Type: SourceTypeFile, FileID: "file_1"}.Validate())
	assert.False(t, SourceItem{Type: "blob"}.Validate())
}

func TestSourceItemCanonicalKey(t *testing.T) {
	a := SourceItem{Type: SourceTypeText, Content: "same"}
	b := SourceItem{Type: SourceTypeText, Content: "same"}
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())

	// URL 规整：去空白、去尾斜杠
	u1 := SourceItem{Type: SourceTypeURL, URL: "https://example.com/doc/"}
	u2 := SourceItem{Type: SourceTypeURL, URL: " https://example.com/doc "}
	assert.Equal(t, u1.CanonicalKey(), u2.CanonicalKey())

	// 文件源优先内容摘要
	f1 := SourceItem{Type: SourceTypeFile, FileID: "f1", Digest: "sha256:d"}
	f2 := SourceItem{Type: SourceTypeFile, FileID: "f2", Digest: "sha256:d"}
	assert.Equal(t, f1.CanonicalKey(), f2.CanonicalKey())
	assert.Equal(t, "file:f3", SourceItem{Type: SourceTypeFile, FileID: "f3"}.CanonicalKey())
}
