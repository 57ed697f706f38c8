package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readySession() *CanvasSession {
	s := NewCanvasSession(CanvasTemplateWebApp, "an idea", "openai", "gpt-4o")
	s.SetQuestion(&CanvasQuestion{
		ID:     "q_1",
		Prompt: "Who is it for?",
		Type:   QuestionTypeSingleChoice,
		Options: []QuestionOption{
			{ID: "opt_a", Label: "Developers"},
			{ID: "opt_b", Label: "Designers"},
		},
	})
	return s
}

func TestNewCanvasSession(t *testing.T) {
	s := NewCanvasSession(CanvasTemplateStartup, "idea", "openai", "gpt-4o")
	assert.True(t, strings.HasPrefix(s.ID, "sess_"))
	assert.Len(t, s.ID, len("sess_")+12)
	assert.Equal(t, CanvasStateStarting, s.State)
	assert.False(t, s.CanAnswer())
}

func TestCanvasSessionAnswerByOptionID(t *testing.T) {
	s := readySession()
	require.True(t, s.CanAnswer())

	s.AppendAnswer("opt_a")
	assert.Equal(t, CanvasStateAnswering, s.State)
	assert.Nil(t, s.CurrentQuestion)
	require.Len(t, s.History, 1)
	assert.Equal(t, "opt_a", s.History[0].SelectedOptionID)
}

func TestCanvasSessionAnswerByLabel(t *testing.T) {
	s := readySession()
	s.AppendAnswer("Designers")
	assert.Equal(t, "opt_b", s.History[0].SelectedOptionID)
}

func TestCanvasSessionFreeTextAnswer(t *testing.T) {
	s := readySession()
	s.AppendAnswer("a mix of both, actually")
	assert.Empty(t, s.History[0].SelectedOptionID)
	assert.Equal(t, "a mix of both, actually", s.History[0].Answer)
}

func TestCanvasSessionRetryOverwritesSameQuestion(t *testing.T) {
	s := readySession()
	s.AppendAnswer("opt_a")
	require.Len(t, s.History, 1)

	// 模型调用失败后恢复问题，重答覆盖末项
	s.MarkError("model call failed")
	s.RestoreLastQuestion()
	require.True(t, s.CanAnswer())
	s.AppendAnswer("opt_b")

	require.Len(t, s.History, 1)
	assert.Equal(t, "opt_b", s.History[0].SelectedOptionID)
}

func TestCanvasSessionPopLast(t *testing.T) {
	s := readySession()
	firstQuestion := *s.CurrentQuestion
	s.AppendAnswer("opt_a")
	s.SetQuestion(&CanvasQuestion{ID: "q_2", Prompt: "Next?"})

	require.True(t, s.PopLast())
	assert.Empty(t, s.History)
	assert.Equal(t, firstQuestion.ID, s.CurrentQuestion.ID)
	assert.Equal(t, CanvasStateReady, s.State)
}

func TestCanvasSessionPopLastFromSuggestComplete(t *testing.T) {
	s := readySession()
	s.AppendAnswer("opt_a")
	s.MarkComplete("done")

	// 从收尾状态回退清空摘要并重新暴露问题
	require.True(t, s.PopLast())
	assert.Empty(t, s.Summary)
	assert.Equal(t, "q_1", s.CurrentQuestion.ID)
}

func TestCanvasSessionPopLastRejected(t *testing.T) {
	empty := NewCanvasSession(CanvasTemplateCustom, "idea", "openai", "gpt-4o")
	assert.False(t, empty.PopLast())

	answering := readySession()
	answering.AppendAnswer("opt_a")
	// 模型调用进行中不可撤销
	assert.False(t, answering.PopLast())
}

func TestCanvasSessionQuestionCount(t *testing.T) {
	s := readySession()
	assert.Equal(t, 1, s.QuestionCount)
	s.AppendAnswer("opt_a")
	s.SetQuestion(&CanvasQuestion{ID: "q_2", Prompt: "Next?"})
	assert.Equal(t, 2, s.QuestionCount)
}

func TestNewQuestionID(t *testing.T) {
	id := NewQuestionID()
	assert.True(t, strings.HasPrefix(id, "q_"))
	assert.Len(t, id, len("q_")+8)
	assert.NotEqual(t, id, NewQuestionID())
}
