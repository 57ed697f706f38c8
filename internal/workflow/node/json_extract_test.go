package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestExtractJSONObjectPlain(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject(`{"a":1}`))
	assert.Equal(t, `[1,2]`, ExtractJSONObject(` [1,2] `))
}

func TestExtractJSONObjectStripsCodeFence(t *testing.T) {
	in := "Sure, here is the result:\n```json\n{\"title\": \"ok\"}\n```\nLet me know!"
	assert.Equal(t, `{"title": "ok"}`, ExtractJSONObject(in))
}

func TestExtractJSONObjectPrefersFirstValue(t *testing.T) {
	in := `noise [1,2] tail`
	assert.Equal(t, `[1,2]`, ExtractJSONObject(in))
}

func TestDecodeJSONHappy(t *testing.T) {
	var p probe
	require.NoError(t, DecodeJSON(`{"title":"doc","tags":["a","b"]}`, &p))
	assert.Equal(t, "doc", p.Title)
	assert.Equal(t, []string{"a", "b"}, p.Tags)
}

func TestDecodeJSONRepairsTrailingComma(t *testing.T) {
	// 模型输出常见缺陷：尾逗号、单引号
	var p probe
	require.NoError(t, DecodeJSON(`{"title": "doc", "tags": ["a", "b",],}`, &p))
	assert.Equal(t, "doc", p.Title)
}

func TestDecodeJSONRejectsProse(t *testing.T) {
	var p probe
	assert.Error(t, DecodeJSON("I cannot produce that output.", &p))
}
