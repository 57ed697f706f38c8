package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTemplateAllKnownIDs(t *testing.T) {
	r := NewRegistry()
	ids := []PromptID{
		PromptTransformDocumentV1,
		PromptTransformSlidesV1,
		PromptTransformMindmapV1,
		PromptCanvasFirstQuestionV1,
		PromptCanvasNextQuestionV1,
		PromptCanvasReportV1,
	}
	for _, id := range ids {
		tpl, err := r.ChatTemplate(id)
		require.NoError(t, err, "prompt %s", id)
		assert.NotNil(t, tpl)
	}
}

func TestChatTemplateUnknownID(t *testing.T) {
	r := NewRegistry()
	_, err := r.ChatTemplate("made_up_v9")
	require.Error(t, err)
}

func TestChatTemplateCached(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(PromptTransformDocumentV1)
	require.NoError(t, err)
	b, err := r.ChatTemplate(PromptTransformDocumentV1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTemplateContextFallsBackToCustom(t *testing.T) {
	assert.Equal(t, templateContexts["custom"], TemplateContext("not_a_template"))
	assert.Equal(t, templateContexts["web_app"], TemplateContext("web_app"))
	assert.NotEmpty(t, TemplateContext("startup"))
}

func TestKnownTemplate(t *testing.T) {
	for _, known := range []string{"startup", "web_app", "ai_agent", "custom", "implement_feature", "code_architecture"} {
		assert.True(t, KnownTemplate(known), known)
	}
	assert.False(t, KnownTemplate("fridge_magnet"))
	assert.False(t, KnownTemplate(""))
}
