// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CanvasState 画布会话状态
type CanvasState string

const (
	CanvasStateIdle            CanvasState = "idle"
	CanvasStateStarting        CanvasState = "starting"
	CanvasStateReady           CanvasState = "ready"
	CanvasStateAnswering       CanvasState = "answering"
	CanvasStateSuggestComplete CanvasState = "suggest_complete"
	CanvasStateError           CanvasState = "error"
)

// CanvasTemplate 画布模板
type CanvasTemplate string

const (
	CanvasTemplateStartup          CanvasTemplate = "startup"
	CanvasTemplateWebApp           CanvasTemplate = "web_app"
	CanvasTemplateAIAgent          CanvasTemplate = "ai_agent"
	CanvasTemplateProjectSpec      CanvasTemplate = "project_spec"
	CanvasTemplateTechStack        CanvasTemplate = "tech_stack"
	CanvasTemplateFeature          CanvasTemplate = "implement_feature"
	CanvasTemplateSolveProblem     CanvasTemplate = "solve_problem"
	CanvasTemplatePerformance      CanvasTemplate = "performance"
	CanvasTemplateScaling          CanvasTemplate = "scaling"
	CanvasTemplateSecurityReview   CanvasTemplate = "security_review"
	CanvasTemplateCodeArchitecture CanvasTemplate = "code_architecture"
	CanvasTemplateCustom           CanvasTemplate = "custom"
)

// QuestionType 问题类型
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice"
	QuestionTypeApproach     QuestionType = "approach"
)

// QuestionOption 封闭式问题的候选项
type QuestionOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Recommended bool   `json:"recommended,omitempty"`
}

// ApproachOption 带取舍说明的方案选项
type ApproachOption struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
	Recommended bool     `json:"recommended,omitempty"`
}

// CanvasQuestion 画布问题
// Options/Approaches 可为空，此时接受开放式文本回答。
type CanvasQuestion struct {
	ID         string           `json:"id"`
	Prompt     string           `json:"prompt"`
	Type       QuestionType     `json:"type"`
	Options    []QuestionOption `json:"options,omitempty"`
	Approaches []ApproachOption `json:"approaches,omitempty"`
	Context    string           `json:"context,omitempty"`
}

// NewQuestionID 生成问题 ID
func NewQuestionID() string {
	return "q_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// QuestionHistoryItem 问答对，有序序列支撑结构化撤销
type QuestionHistoryItem struct {
	Question CanvasQuestion `json:"question"`
	Answer   string         `json:"answer"`
	// SelectedOptionID 回答命中候选项时记录其 ID
	SelectedOptionID string    `json:"selected_option_id,omitempty"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// CanvasSession 创意画布会话
type CanvasSession struct {
	ID       string         `json:"id"`
	Template CanvasTemplate `json:"template"`
	Idea     string         `json:"idea"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	State    CanvasState    `json:"state"`
	// History 线性问答历史；goBack 弹出末项即可回退
	History []QuestionHistoryItem `json:"history"`
	// CurrentQuestion 待回答的问题，可为空（starting/suggest_complete）
	CurrentQuestion *CanvasQuestion `json:"current_question,omitempty"`
	// QuestionCount 已提出的问题总数（含已回答与当前待答）
	QuestionCount int `json:"question_count"`
	// Summary suggest_complete 时模型给出的收尾说明
	Summary   string    `json:"summary,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCanvasSession 创建画布会话
func NewCanvasSession(template CanvasTemplate, idea, provider, model string) *CanvasSession {
	now := time.Now()
	return &CanvasSession{
		ID:        "sess_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Template:  template,
		Idea:      idea,
		Provider:  provider,
		Model:     model,
		State:     CanvasStateStarting,
		History:   []QuestionHistoryItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetQuestion 设置新的待答问题并回到 ready
func (s *CanvasSession) SetQuestion(q *CanvasQuestion) {
	s.CurrentQuestion = q
	s.QuestionCount++
	s.State = CanvasStateReady
	s.UpdatedAt = time.Now()
}

// CanAnswer 是否可以提交回答
func (s *CanvasSession) CanAnswer() bool {
	return s.CurrentQuestion != nil &&
		(s.State == CanvasStateReady || s.State == CanvasStateError)
}

// AppendAnswer 将当前问题与回答追加进历史并清空当前问题
// 在模型调用之前执行，调用中途崩溃也不会丢失用户已提交的回答。
// 失败重试时同一问题的回答覆盖末项而非重复追加。
func (s *CanvasSession) AppendAnswer(answer string) {
	if s.CurrentQuestion == nil {
		return
	}
	item := QuestionHistoryItem{
		Question:   *s.CurrentQuestion,
		Answer:     answer,
		AnsweredAt: time.Now(),
	}
	for _, opt := range s.CurrentQuestion.Options {
		if opt.ID == answer || opt.Label == answer {
			item.SelectedOptionID = opt.ID
			break
		}
	}
	if n := len(s.History); n > 0 && s.History[n-1].Question.ID == item.Question.ID {
		s.History[n-1] = item
	} else {
		s.History = append(s.History, item)
	}
	s.CurrentQuestion = nil
	s.State = CanvasStateAnswering
	s.UpdatedAt = time.Now()
}

// PopLast 弹出最近一个历史项并重新暴露其问题（本地撤销，无模型调用）
// 历史为空或模型调用进行中时返回 false。
func (s *CanvasSession) PopLast() bool {
	if len(s.History) == 0 || s.State == CanvasStateAnswering || s.State == CanvasStateStarting {
		return false
	}
	last := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	q := last.Question
	s.CurrentQuestion = &q
	s.Summary = ""
	s.State = CanvasStateReady
	s.UpdatedAt = time.Now()
	return true
}

// MarkComplete 进入 suggest_complete
func (s *CanvasSession) MarkComplete(summary string) {
	s.CurrentQuestion = nil
	s.Summary = summary
	s.State = CanvasStateSuggestComplete
	s.UpdatedAt = time.Now()
}

// MarkError 进入 error，已追加的历史保留，会话可从最近的问题恢复
func (s *CanvasSession) MarkError(msg string) {
	s.LastError = msg
	s.State = CanvasStateError
	s.UpdatedAt = time.Now()
}

// RestoreLastQuestion 模型调用失败后把最近历史项的问题重新设为当前问题
// 历史不回滚；重试时调用方重新提交回答即可。
func (s *CanvasSession) RestoreLastQuestion() {
	if len(s.History) == 0 {
		return
	}
	q := s.History[len(s.History)-1].Question
	s.CurrentQuestion = &q
}
