package dto

import (
	"time"

	"prism-docs-api/internal/domain/entity"
)

// CanvasStartRequest 创建画布会话
type CanvasStartRequest struct {
	Template string `json:"template,omitempty"`
	Idea     string `json:"idea" binding:"required"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// CanvasAnswerRequest 提交回答
// QuestionID 必须是会话当前问题的 ID，过期提交会被拒绝。
type CanvasAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
	APIKey     string `json:"api_key,omitempty"`
}

// CanvasReportRequest 生成报告
type CanvasReportRequest struct {
	// Format 支持 markdown / html，缺省 markdown
	Format string `json:"format,omitempty"`
	APIKey string `json:"api_key,omitempty"`
}

// CanvasOptionView 候选项视图
type CanvasOptionView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Recommended bool   `json:"recommended,omitempty"`
}

// CanvasApproachView 方案选项视图
type CanvasApproachView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
	Recommended bool     `json:"recommended,omitempty"`
}

// CanvasQuestionView 问题视图
type CanvasQuestionView struct {
	ID         string               `json:"id"`
	Prompt     string               `json:"prompt"`
	Type       string               `json:"type"`
	Options    []CanvasOptionView   `json:"options,omitempty"`
	Approaches []CanvasApproachView `json:"approaches,omitempty"`
	Context    string               `json:"context,omitempty"`
}

// CanvasHistoryView 一轮已回答的问答
type CanvasHistoryView struct {
	Question   CanvasQuestionView `json:"question"`
	Answer     string             `json:"answer"`
	AnsweredAt time.Time          `json:"answered_at"`
}

// CanvasEventFrame 画布 SSE 帧
type CanvasEventFrame struct {
	Type    string                 `json:"type"`
	State   string                 `json:"state,omitempty"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Session *CanvasSessionResponse `json:"session,omitempty"`
}

// CanvasSessionResponse 会话视图
type CanvasSessionResponse struct {
	ID              string              `json:"id"`
	Template        string              `json:"template"`
	Idea            string              `json:"idea"`
	State           string              `json:"state"`
	CurrentQuestion *CanvasQuestionView `json:"current_question,omitempty"`
	History         []CanvasHistoryView `json:"history"`
	QuestionCount   int                 `json:"question_count"`
	Summary         string              `json:"summary,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewCanvasSessionResponse 从领域会话构造视图
func NewCanvasSessionResponse(s *entity.CanvasSession) *CanvasSessionResponse {
	resp := &CanvasSessionResponse{
		ID:            s.ID,
		Template:      string(s.Template),
		Idea:          s.Idea,
		State:         string(s.State),
		History:       make([]CanvasHistoryView, 0, len(s.History)),
		QuestionCount: s.QuestionCount,
		Summary:       s.Summary,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.CurrentQuestion != nil {
		q := newCanvasQuestionView(*s.CurrentQuestion)
		resp.CurrentQuestion = &q
	}
	for _, item := range s.History {
		resp.History = append(resp.History, CanvasHistoryView{
			Question:   newCanvasQuestionView(item.Question),
			Answer:     item.Answer,
			AnsweredAt: item.AnsweredAt,
		})
	}
	return resp
}

func newCanvasQuestionView(q entity.CanvasQuestion) CanvasQuestionView {
	view := CanvasQuestionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Type:    string(q.Type),
		Context: q.Context,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, CanvasOptionView{
			ID:          opt.ID,
			Label:       opt.Label,
			Description: opt.Description,
			Recommended: opt.Recommended,
		})
	}
	for _, ap := range q.Approaches {
		view.Approaches = append(view.Approaches, CanvasApproachView{
			ID:          ap.ID,
			Title:       ap.Title,
			Description: ap.Description,
			Pros:        ap.Pros,
			Cons:        ap.Cons,
			Recommended: ap.Recommended,
		})
	}
	return view
}
