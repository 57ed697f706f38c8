package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/domain/entity"
	apperrors "prism-docs-api/pkg/errors"
)

func TestParseTurnSingleChoice(t *testing.T) {
	turn, err := parseTurn(`{
		"question": "Who is the primary audience?",
		"type": "single_choice",
		"options": [
			{"id": "opt_devs", "label": "Developers", "recommended": true},
			{"id": "opt_pm", "label": "Product managers"}
		],
		"context": "Audience shapes tone and depth."
	}`)
	require.NoError(t, err)
	require.NotNil(t, turn.Question)
	assert.False(t, turn.Complete)

	q := turn.Question
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, entity.QuestionTypeSingleChoice, q.Type)
	assert.Equal(t, "Who is the primary audience?", q.Prompt)
	assert.Equal(t, "Audience shapes tone and depth.", q.Context)
	require.Len(t, q.Options, 2)
	assert.Equal(t, "opt_devs", q.Options[0].ID)
	assert.True(t, q.Options[0].Recommended)
}

func TestParseTurnApproach(t *testing.T) {
	turn, err := parseTurn(`{
		"question": "How should the data layer be structured?",
		"type": "approach",
		"approaches": [
			{"title": "Single Postgres", "pros": ["simple"], "cons": ["scale ceiling"], "recommended": true},
			{"title": "Postgres + Redis cache"}
		]
	}`)
	require.NoError(t, err)
	require.NotNil(t, turn.Question)

	q := turn.Question
	assert.Equal(t, entity.QuestionTypeApproach, q.Type)
	require.Len(t, q.Approaches, 2)
	// 缺失 ID 时按位置补默认值
	assert.Equal(t, "approach_1", q.Approaches[0].ID)
	assert.Equal(t, "approach_2", q.Approaches[1].ID)
	assert.Equal(t, []string{"simple"}, q.Approaches[0].Pros)
}

func TestParseTurnSuggestComplete(t *testing.T) {
	turn, err := parseTurn(`{"suggest_complete": true, "summary": "Enough context gathered."}`)
	require.NoError(t, err)
	assert.True(t, turn.Complete)
	assert.Equal(t, "Enough context gathered.", turn.Summary)
	assert.Nil(t, turn.Question)
}

func TestParseTurnCodeFence(t *testing.T) {
	// 模型常把 JSON 包进 markdown 代码块
	turn, err := parseTurn("Here you go:\n```json\n{\"question\": \"What scale?\", \"type\": \"single_choice\", \"options\": [{\"label\": \"Small\"}]}\n```\nHope that helps!")
	require.NoError(t, err)
	require.NotNil(t, turn.Question)
	assert.Equal(t, "What scale?", turn.Question.Prompt)
	require.Len(t, turn.Question.Options, 1)
	assert.Equal(t, "opt_1", turn.Question.Options[0].ID)
}

func TestParseTurnSkipsEmptyOptions(t *testing.T) {
	turn, err := parseTurn(`{
		"question": "Pick one",
		"options": [{"label": ""}, {"label": "Real option"}]
	}`)
	require.NoError(t, err)
	require.Len(t, turn.Question.Options, 1)
	assert.Equal(t, "Real option", turn.Question.Options[0].Label)
}

func TestParseTurnUnknownTypeDefaults(t *testing.T) {
	turn, err := parseTurn(`{"question": "Open ended?", "type": "essay"}`)
	require.NoError(t, err)
	assert.Equal(t, entity.QuestionTypeSingleChoice, turn.Question.Type)
}

func TestParseTurnRejectsGarbage(t *testing.T) {
	_, err := parseTurn("I am sorry, I cannot answer that.")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCanvasAnswerFailed, apperrors.AsAppError(err).Code)
}

func TestParseTurnRejectsEmptyUnion(t *testing.T) {
	_, err := parseTurn(`{"context": "nothing useful"}`)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCanvasAnswerFailed, apperrors.AsAppError(err).Code)
}
