package canvas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

const questionJSON = `{"question": "What is the target audience?", "type": "single_choice", "options": [{"id": "opt_devs", "label": "Developers"}]}`
const completeJSON = `{"suggest_complete": true, "summary": "Plan is clear."}`

// memCanvasStore 内存会话存储
type memCanvasStore struct {
	sessions map[string]*entity.CanvasSession
	saveErr  error
	saves    int
}

func newMemCanvasStore() *memCanvasStore {
	return &memCanvasStore{sessions: make(map[string]*entity.CanvasSession)}
}

func (m *memCanvasStore) Save(ctx context.Context, session *entity.CanvasSession, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memCanvasStore) Get(ctx context.Context, sessionID string) (*entity.CanvasSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memCanvasStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

// scriptedModel 按脚本依次返回，脚本耗尽后重复最后一项
type scriptedModel struct {
	script []func() (*schema.Message, error)
	calls  int
	inputs []*wfmodel.CanvasQuestionInput
}

func (m *scriptedModel) Invoke(ctx context.Context, in *wfmodel.CanvasQuestionInput) (*schema.Message, error) {
	m.inputs = append(m.inputs, in)
	idx := m.calls
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.calls++
	return m.script[idx]()
}

type scriptedReporter struct {
	content string
	err     error
	inputs  []*wfmodel.ReportInput
}

func (m *scriptedReporter) Invoke(ctx context.Context, in *wfmodel.ReportInput) (*schema.Message, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.content}, nil
}

// fakeReportRenderer 记录入参的渲染网关替身
type fakeReportRenderer struct {
	result  *render.Result
	err     error
	kind    string
	content *wfmodel.ContentModel
}

func (r *fakeReportRenderer) Render(ctx context.Context, kind string, content *wfmodel.ContentModel) (*render.Result, error) {
	r.kind = kind
	r.content = content
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

// collectSink 顺序收集事件
type collectSink struct {
	events []Event
}

func (s *collectSink) Publish(event Event) {
	s.events = append(s.events, event)
}

func modelSays(content string) func() (*schema.Message, error) {
	return func() (*schema.Message, error) {
		return &schema.Message{Role: schema.Assistant, Content: content}, nil
	}
}

func modelFails(err error) func() (*schema.Message, error) {
	return func() (*schema.Message, error) { return nil, err }
}

type canvasFixture struct {
	service    *Service
	store      *memCanvasStore
	questioner *scriptedModel
	reporter   *scriptedReporter
	renderer   *fakeReportRenderer
}

func newCanvasFixture(t *testing.T, maxQuestions int) *canvasFixture {
	t.Helper()
	fx := &canvasFixture{
		store:      newMemCanvasStore(),
		questioner: &scriptedModel{script: []func() (*schema.Message, error){modelSays(questionJSON)}},
		reporter:   &scriptedReporter{content: "# Implementation Plan\n\nDo the thing."},
		renderer: &fakeReportRenderer{
			result: &render.Result{Data: []byte("%PDF-1.7 plan"), ContentType: "application/pdf", Pages: 1},
		},
	}
	cfg := &config.CanvasConfig{
		MaxQuestions:      maxQuestions,
		SessionTTL:        time.Hour,
		QuestionMaxTokens: 2000,
		ReportMaxTokens:   4000,
	}
	fx.service = NewService(cfg, fx.store, fx.questioner, fx.reporter, fx.renderer)
	return fx
}

func (fx *canvasFixture) start(t *testing.T) *entity.CanvasSession {
	t.Helper()
	session, err := fx.service.Start(context.Background(), "web_app", "a doc generation service", "openai", "gpt-4o", "sk-test", nil)
	require.NoError(t, err)
	return session
}

func (fx *canvasFixture) answer(t *testing.T, session *entity.CanvasSession, answer string) (*entity.CanvasSession, error) {
	t.Helper()
	stored, err := fx.store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.CurrentQuestion)
	return fx.service.Answer(context.Background(), session.ID, stored.CurrentQuestion.ID, answer, "sk-test", nil)
}

// assertTurnEvents 每轮恰好一个终态事件且总在最后
func assertTurnEvents(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)
	for i, ev := range events[:len(events)-1] {
		assert.False(t, ev.Terminal(), "event %d must not be terminal", i)
	}
	assert.True(t, events[len(events)-1].Terminal())
}

func TestCanvasStart(t *testing.T) {
	fx := newCanvasFixture(t, 25)

	session := fx.start(t)
	assert.Equal(t, entity.CanvasStateReady, session.State)
	assert.Equal(t, 1, session.QuestionCount)
	require.NotNil(t, session.CurrentQuestion)
	assert.Equal(t, "What is the target audience?", session.CurrentQuestion.Prompt)

	// 首问生成前会话已持久化
	stored, err := fx.store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.GreaterOrEqual(t, fx.store.saves, 2)
}

func TestCanvasStartStreamsEvents(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	sink := &collectSink{}

	session, err := fx.service.Start(context.Background(), "web_app", "an idea", "openai", "gpt-4o", "sk-test", sink)
	require.NoError(t, err)

	assertTurnEvents(t, sink.events)
	assert.Equal(t, EventProgress, sink.events[0].Type)

	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventReady, last.Type)
	require.NotNil(t, last.Session)
	assert.Equal(t, session.ID, last.Session.ID)
	require.NotNil(t, last.Session.CurrentQuestion)
}

func TestCanvasStartEmptyIdea(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	_, err := fx.service.Start(context.Background(), "web_app", "   ", "openai", "gpt-4o", "sk-test", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestCanvasStartUnknownTemplateFallsBackToCustom(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	session, err := fx.service.Start(context.Background(), "fridge_magnet", "an idea", "openai", "gpt-4o", "sk-test", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.CanvasTemplateCustom, session.Template)
}

func TestCanvasStartModelFailurePersistsErrorState(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){modelFails(errors.New("model exploded"))}
	sink := &collectSink{}

	_, err := fx.service.Start(context.Background(), "web_app", "an idea", "openai", "gpt-4o", "sk-test", sink)
	require.Error(t, err)

	// 会话保留在 error 态，诊断可见
	require.Len(t, fx.store.sessions, 1)
	for _, s := range fx.store.sessions {
		assert.Equal(t, entity.CanvasStateError, s.State)
		assert.NotEmpty(t, s.LastError)
	}

	// 终态 error 事件携带稳定错误码
	assertTurnEvents(t, sink.events)
	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, string(apperrors.CodeCanvasAnswerFailed), last.Code)
}

func TestCanvasStartRejectsImmediateCompletion(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){modelSays(completeJSON)}

	_, err := fx.service.Start(context.Background(), "web_app", "an idea", "openai", "gpt-4o", "sk-test", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCanvasAnswerFailed, apperrors.AsAppError(err).Code)
}

func TestCanvasAnswerAdvances(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(`{"question": "Which deployment target?", "type": "single_choice"}`),
	}
	session := fx.start(t)

	updated, err := fx.answer(t, session, "opt_devs")
	require.NoError(t, err)

	assert.Equal(t, entity.CanvasStateReady, updated.State)
	assert.Equal(t, 2, updated.QuestionCount)
	require.Len(t, updated.History, 1)
	assert.Equal(t, "opt_devs", updated.History[0].SelectedOptionID)
	assert.Equal(t, "Which deployment target?", updated.CurrentQuestion.Prompt)

	// 历史以选项文案喂给模型
	lastInput := fx.questioner.inputs[len(fx.questioner.inputs)-1]
	require.Len(t, lastInput.History, 1)
	assert.Equal(t, "Developers", lastInput.History[0].Answer)
}

func TestCanvasAnswerStaleQuestionRejected(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(`{"question": "Which deployment target?", "type": "single_choice"}`),
	}
	session := fx.start(t)
	staleID := session.CurrentQuestion.ID

	updated, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)
	callsBefore := fx.questioner.calls

	// 过期标签页对已推进的问题重复提交
	_, err = fx.service.Answer(context.Background(), session.ID, staleID, "stale answer", "sk-test", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)

	// 不触发模型，历史不被污染
	assert.Equal(t, callsBefore, fx.questioner.calls)
	stored, _ := fx.store.Get(context.Background(), session.ID)
	require.Len(t, stored.History, 1)
	assert.Equal(t, updated.CurrentQuestion.ID, stored.CurrentQuestion.ID)
}

func TestCanvasAnswerSuggestComplete(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(completeJSON),
	}
	session := fx.start(t)
	sink := &collectSink{}

	updated, err := fx.service.Answer(context.Background(), session.ID, session.CurrentQuestion.ID, "Developers", "sk-test", sink)
	require.NoError(t, err)
	assert.Equal(t, entity.CanvasStateSuggestComplete, updated.State)
	assert.Equal(t, "Plan is clear.", updated.Summary)
	assert.Nil(t, updated.CurrentQuestion)

	// 收尾轮以 complete 终态收流
	assertTurnEvents(t, sink.events)
	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventComplete, last.Type)
	require.NotNil(t, last.Session)
	assert.Equal(t, "Plan is clear.", last.Session.Summary)
}

func TestCanvasAnswerInvalidState(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(completeJSON),
	}
	session := fx.start(t)
	questionID := session.CurrentQuestion.ID
	_, err := fx.service.Answer(context.Background(), session.ID, questionID, "Developers", "sk-test", nil)
	require.NoError(t, err)

	// suggest_complete 之后没有可回答的问题
	_, err = fx.service.Answer(context.Background(), session.ID, questionID, "one more", "sk-test", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidCanvasState, apperrors.AsAppError(err).Code)
}

func TestCanvasAnswerModelFailureKeepsHistory(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelFails(errors.New("503 service unavailable")),
		modelSays(`{"question": "Next question?", "type": "single_choice"}`),
	}
	session := fx.start(t)

	_, err := fx.answer(t, session, "Developers")
	require.Error(t, err)

	stored, _ := fx.store.Get(context.Background(), session.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entity.CanvasStateError, stored.State)
	require.Len(t, stored.History, 1, "submitted answer must survive the failure")
	require.NotNil(t, stored.CurrentQuestion, "failed question is re-exposed for retry")

	// 重新提交：同一问题的回答覆盖末项，不重复追加
	updated, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)
	assert.Len(t, updated.History, 1)
	assert.Equal(t, "Next question?", updated.CurrentQuestion.Prompt)
}

func TestCanvasAnswerQuestionCapForcesCompletion(t *testing.T) {
	fx := newCanvasFixture(t, 1)
	session := fx.start(t)
	callsBefore := fx.questioner.calls

	updated, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)

	// 达到上限不再调模型，直接收尾
	assert.Equal(t, callsBefore, fx.questioner.calls)
	assert.Equal(t, entity.CanvasStateSuggestComplete, updated.State)
	assert.NotEmpty(t, updated.Summary)
}

func TestCanvasGoBack(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(`{"question": "Second question?", "type": "single_choice"}`),
	}
	session := fx.start(t)
	firstQuestionID := session.CurrentQuestion.ID

	_, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)
	callsBefore := fx.questioner.calls

	reverted, err := fx.service.GoBack(context.Background(), session.ID)
	require.NoError(t, err)

	// 纯本地撤销：不触发模型，首问重新暴露
	assert.Equal(t, callsBefore, fx.questioner.calls)
	assert.Empty(t, reverted.History)
	require.NotNil(t, reverted.CurrentQuestion)
	assert.Equal(t, firstQuestionID, reverted.CurrentQuestion.ID)
	assert.Equal(t, entity.CanvasStateReady, reverted.State)
}

func TestCanvasGoBackEmptyHistory(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	session := fx.start(t)

	_, err := fx.service.GoBack(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidCanvasState, apperrors.AsAppError(err).Code)
}

func TestCanvasReport(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(completeJSON),
	}
	session := fx.start(t)
	_, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)

	data, contentType, err := fx.service.Report(context.Background(), session.ID, "", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "text/markdown; charset=utf-8", contentType)
	assert.Contains(t, string(data), "Implementation Plan")
	assert.Contains(t, string(data), "Generated from 1 answered questions")

	// 凭据与收尾摘要进入报告调用
	require.Len(t, fx.reporter.inputs, 1)
	assert.Equal(t, "sk-test", fx.reporter.inputs[0].Credential.APIKey)
	assert.Equal(t, "Plan is clear.", fx.reporter.inputs[0].Summary)

	html, contentType, err := fx.service.Report(context.Background(), session.ID, "html", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", contentType)
	assert.Contains(t, string(html), "<html>")

	_, _, err = fx.service.Report(context.Background(), session.ID, "docx", "sk-test")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestCanvasReportPDF(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(completeJSON),
	}
	session := fx.start(t)
	_, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)

	data, contentType, err := fx.service.Report(context.Background(), session.ID, "pdf", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.7 plan"), data)

	// 报告 markdown 经渲染网关走 pdf 路径
	assert.Equal(t, "pdf", fx.renderer.kind)
	require.NotNil(t, fx.renderer.content)
	require.Len(t, fx.renderer.content.Sections, 1)
	assert.Contains(t, fx.renderer.content.Sections[0].Content, "Implementation Plan")
	assert.Contains(t, fx.renderer.content.Sections[0].Content, "Generated from 1 answered questions")
}

func TestCanvasReportPDFRendererFailure(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	fx.questioner.script = []func() (*schema.Message, error){
		modelSays(questionJSON),
		modelSays(completeJSON),
	}
	fx.renderer.err = apperrors.New(apperrors.CodeRendererError, "503 gateway unavailable")
	session := fx.start(t)
	_, err := fx.answer(t, session, "Developers")
	require.NoError(t, err)

	_, _, err = fx.service.Report(context.Background(), session.ID, "pdf", "sk-test")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeReportFailed, apperrors.AsAppError(err).Code)
}

func TestCanvasReportRequiresCompletion(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	session := fx.start(t)

	_, _, err := fx.service.Report(context.Background(), session.ID, "markdown", "sk-test")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidCanvasState, apperrors.AsAppError(err).Code)
}

func TestCanvasSessionNotFound(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	_, err := fx.service.Get(context.Background(), "sess_missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSessionNotFound, apperrors.AsAppError(err).Code)
}

func TestCanvasDelete(t *testing.T) {
	fx := newCanvasFixture(t, 25)
	session := fx.start(t)

	require.NoError(t, fx.service.Delete(context.Background(), session.ID))
	_, err := fx.service.Get(context.Background(), session.ID)
	require.Error(t, err)
}
