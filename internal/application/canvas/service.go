// Package canvas 实现创意画布的多轮问答编排
package canvas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
	workflowprompt "prism-docs-api/internal/workflow/prompt"
	apperrors "prism-docs-api/pkg/errors"
	"prism-docs-api/pkg/logger"
	"prism-docs-api/pkg/metrics"
)

// QuestionModel 问答链
type QuestionModel interface {
	Invoke(ctx context.Context, in *wfmodel.CanvasQuestionInput) (*schema.Message, error)
}

// ReportModel 报告链
type ReportModel interface {
	Invoke(ctx context.Context, in *wfmodel.ReportInput) (*schema.Message, error)
}

// Renderer pdf 报告走渲染网关
type Renderer interface {
	Render(ctx context.Context, kind string, content *wfmodel.ContentModel) (*render.Result, error)
}

// Service 画布服务
// 会话历史在每次模型调用之前持久化；goBack 为纯本地操作不触发模型。
type Service struct {
	cfg        *config.CanvasConfig
	store      repository.CanvasSessionStore
	questioner QuestionModel
	reporter   ReportModel
	renderer   Renderer
}

// NewService 创建画布服务
func NewService(cfg *config.CanvasConfig, store repository.CanvasSessionStore, questioner QuestionModel, reporter ReportModel, renderer Renderer) *Service {
	return &Service{
		cfg:        cfg,
		store:      store,
		questioner: questioner,
		reporter:   reporter,
		renderer:   renderer,
	}
}

// Start 创建会话并生成首个问题
// 未知模板按 custom 处理而不报错。事件推入 sink（可为 nil）：
// 先 progress，终态 ready/error 恰好一个且总在最后。
func (s *Service) Start(ctx context.Context, template, idea, provider, model, apiKey string, sink EventSink) (*entity.CanvasSession, error) {
	session, err := s.start(ctx, template, idea, provider, model, apiKey, sink)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		s.publish(sink, Event{Type: EventError, Code: string(appErr.Code), Message: appErr.Message})
		return nil, err
	}
	s.publish(sink, terminalEvent(session))
	return session, nil
}

func (s *Service) start(ctx context.Context, template, idea, provider, model, apiKey string, sink EventSink) (*entity.CanvasSession, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "idea must not be empty")
	}
	if !workflowprompt.KnownTemplate(template) {
		template = string(entity.CanvasTemplateCustom)
	}

	session := entity.NewCanvasSession(entity.CanvasTemplate(template), idea, provider, model)
	ctx = logger.WithContext(ctx, logger.SessionIDKey, session.ID)

	// 先落会话再调模型，调用失败时会话仍可恢复
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
	}
	s.publish(sink, Event{Type: EventProgress, State: session.State, Message: "generating first question"})

	turn, err := s.nextTurn(ctx, session, apiKey)
	if err != nil {
		session.MarkError(apperrors.AsAppError(err).Message)
		s.save(ctx, session)
		metrics.CanvasTurnsTotal.WithLabelValues(template, "error").Inc()
		return nil, err
	}
	if turn.Complete {
		// 首问即收尾不合常理，按模型输出错误处理
		err := apperrors.New(apperrors.CodeCanvasAnswerFailed, "model suggested completion before any question")
		session.MarkError(err.Message)
		s.save(ctx, session)
		return nil, err
	}

	session.SetQuestion(turn.Question)
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
	}
	metrics.CanvasTurnsTotal.WithLabelValues(template, "question").Inc()
	logger.Info(ctx, "canvas session started", "template", template)
	return session, nil
}

// Get 读取会话
func (s *Service) Get(ctx context.Context, sessionID string) (*entity.CanvasSession, error) {
	return s.load(ctx, sessionID)
}

// Answer 提交当前问题的回答并推进会话
// questionID 必须指向会话的当前问题，过期客户端的回答直接拒绝。
// 回答先追加进历史并持久化，之后才调用模型；失败时历史保留，
// 会话进入 error 态并恢复最近的问题，客户端可重新提交。
// 事件推入 sink（可为 nil）：先 progress，终态 ready/complete/error
// 恰好一个且总在最后。
func (s *Service) Answer(ctx context.Context, sessionID, questionID, answer, apiKey string, sink EventSink) (*entity.CanvasSession, error) {
	session, err := s.answer(ctx, sessionID, questionID, answer, apiKey, sink)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		s.publish(sink, Event{Type: EventError, Code: string(appErr.Code), Message: appErr.Message})
		return nil, err
	}
	s.publish(sink, terminalEvent(session))
	return session, nil
}

func (s *Service) answer(ctx context.Context, sessionID, questionID, answer, apiKey string, sink EventSink) (*entity.CanvasSession, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "answer must not be empty")
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, session.ID)

	if !session.CanAnswer() {
		return nil, apperrors.New(apperrors.CodeInvalidCanvasState,
			fmt.Sprintf("session in state %q has no answerable question", session.State))
	}
	if session.CurrentQuestion.ID != questionID {
		// goBack 或并发标签页之后的过期提交，不得挂到当前问题上
		return nil, apperrors.New(apperrors.CodeInvalidParam,
			fmt.Sprintf("question %q is not the current question", questionID))
	}

	session.AppendAnswer(answer)
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
	}
	s.publish(sink, Event{Type: EventProgress, State: session.State, Message: "generating next question"})

	// 问题数硬上限：不再调模型，直接收尾
	if session.QuestionCount >= s.cfg.MaxQuestions {
		session.MarkComplete("Question limit reached; enough context has been gathered to draft the plan.")
		if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
		}
		s.observeComplete(session)
		return session, nil
	}

	turn, err := s.nextTurn(ctx, session, apiKey)
	if err != nil {
		session.MarkError(apperrors.AsAppError(err).Message)
		session.RestoreLastQuestion()
		s.save(ctx, session)
		metrics.CanvasTurnsTotal.WithLabelValues(string(session.Template), "error").Inc()
		return nil, err
	}

	if turn.Complete {
		session.MarkComplete(turn.Summary)
		s.observeComplete(session)
	} else {
		session.SetQuestion(turn.Question)
		metrics.CanvasTurnsTotal.WithLabelValues(string(session.Template), "question").Inc()
	}
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
	}
	return session, nil
}

// GoBack 撤销最近一轮问答，重新暴露该问题
// 纯本地操作，不触发模型调用。
func (s *Service) GoBack(ctx context.Context, sessionID string) (*entity.CanvasSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.PopLast() {
		return nil, apperrors.New(apperrors.CodeInvalidCanvasState, "nothing to go back to")
	}
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to persist canvas session")
	}
	return session, nil
}

// Report 基于已收尾的会话生成实现计划
// format 支持 markdown、html 与 pdf，默认 markdown；pdf 走渲染网关。
func (s *Service) Report(ctx context.Context, sessionID, format, apiKey string) ([]byte, string, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, session.ID)

	if session.State != entity.CanvasStateSuggestComplete {
		return nil, "", apperrors.New(apperrors.CodeInvalidCanvasState,
			fmt.Sprintf("report requires a completed session, state is %q", session.State))
	}

	in := &wfmodel.ReportInput{
		Credential: wfmodel.Credential{
			Provider: session.Provider,
			Model:    session.Model,
			APIKey:   apiKey,
		},
		Template: string(session.Template),
		Idea:     session.Idea,
		Summary:  session.Summary,
		History:  historyTurns(session),
	}
	if s.cfg.ReportMaxTokens > 0 {
		mt := s.cfg.ReportMaxTokens
		in.MaxTokens = &mt
	}

	msg, err := s.reporter.Invoke(ctx, in)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.CodeReportFailed, "report generation failed")
	}

	markdown := strings.TrimSpace(msg.Content)
	markdown += fmt.Sprintf("\n\n---\n\n*Generated from %d answered questions on %s.*\n",
		len(session.History), time.Now().Format("2006-01-02"))

	switch format {
	case "", "markdown":
		return []byte(markdown), "text/markdown; charset=utf-8", nil
	case "html":
		page, err := render.MarkdownToHTML(reportTitle(session), markdown)
		if err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.CodeReportFailed, "report html rendering failed")
		}
		return page, "text/html; charset=utf-8", nil
	case "pdf":
		content := &wfmodel.ContentModel{
			Title:    reportTitle(session),
			Sections: []wfmodel.Section{{Title: "Implementation Plan", Content: markdown}},
		}
		result, err := s.renderer.Render(ctx, "pdf", content)
		if err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.CodeReportFailed, "report pdf rendering failed")
		}
		return result.Data, result.ContentType, nil
	default:
		return nil, "", apperrors.New(apperrors.CodeInvalidParam, "unsupported report format: "+format)
	}
}

// Delete 删除会话
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to delete canvas session")
	}
	return nil
}

func (s *Service) nextTurn(ctx context.Context, session *entity.CanvasSession, apiKey string) (*parsedTurn, error) {
	in := &wfmodel.CanvasQuestionInput{
		Credential: wfmodel.Credential{
			Provider: session.Provider,
			Model:    session.Model,
			APIKey:   apiKey,
		},
		Template:      string(session.Template),
		Idea:          session.Idea,
		History:       historyTurns(session),
		QuestionCount: session.QuestionCount,
	}
	if s.cfg.QuestionMaxTokens > 0 {
		mt := s.cfg.QuestionMaxTokens
		in.MaxTokens = &mt
	}

	msg, err := s.questioner.Invoke(ctx, in)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCanvasAnswerFailed, "question generation failed")
	}
	return parseTurn(msg.Content)
}

func (s *Service) load(ctx context.Context, sessionID string) (*entity.CanvasSession, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to load canvas session")
	}
	if session == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

// save 尽力保存，失败只记日志（调用方已在错误路径上）
func (s *Service) save(ctx context.Context, session *entity.CanvasSession) {
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		logger.Error(ctx, "failed to persist canvas session", err)
	}
}

func (s *Service) publish(sink EventSink, event Event) {
	if sink != nil {
		sink.Publish(event)
	}
}

// terminalEvent 成功路径的终态事件：收尾态为 complete，其余为 ready
func terminalEvent(session *entity.CanvasSession) Event {
	if session.State == entity.CanvasStateSuggestComplete {
		return Event{Type: EventComplete, State: session.State, Session: session}
	}
	return Event{Type: EventReady, State: session.State, Session: session}
}

func (s *Service) observeComplete(session *entity.CanvasSession) {
	metrics.CanvasTurnsTotal.WithLabelValues(string(session.Template), "complete").Inc()
	metrics.CanvasSessionQuestions.Observe(float64(len(session.History)))
}

func historyTurns(session *entity.CanvasSession) []wfmodel.CanvasTurn {
	turns := make([]wfmodel.CanvasTurn, 0, len(session.History))
	for _, item := range session.History {
		answer := item.Answer
		if item.SelectedOptionID != "" {
			for _, opt := range item.Question.Options {
				if opt.ID == item.SelectedOptionID {
					answer = opt.Label
					break
				}
			}
		}
		turns = append(turns, wfmodel.CanvasTurn{Question: item.Question.Prompt, Answer: answer})
	}
	return turns
}

func reportTitle(session *entity.CanvasSession) string {
	idea := session.Idea
	if len(idea) > 60 {
		idea = idea[:60]
	}
	return "Implementation Plan: " + idea
}
