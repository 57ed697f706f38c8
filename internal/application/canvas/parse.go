package canvas

import (
	"fmt"

	"prism-docs-api/internal/domain/entity"
	wfnode "prism-docs-api/internal/workflow/node"
	apperrors "prism-docs-api/pkg/errors"
)

// turnPayload 问答链输出的联合形状
// 要么是一个新问题，要么是 suggest_complete 收尾。
type turnPayload struct {
	Question        string            `json:"question"`
	Type            string            `json:"type"`
	Options         []optionPayload   `json:"options"`
	Approaches      []approachPayload `json:"approaches"`
	Context         string            `json:"context"`
	SuggestComplete bool              `json:"suggest_complete"`
	Summary         string            `json:"summary"`
}

type optionPayload struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Recommended bool   `json:"recommended"`
}

type approachPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Recommended bool     `json:"recommended"`
}

// parsedTurn 解析后的一轮模型输出
type parsedTurn struct {
	Question *entity.CanvasQuestion
	// Complete 为 true 时 Question 为空，Summary 携带收尾说明
	Complete bool
	Summary  string
}

// parseTurn 解析问答链的输出
func parseTurn(content string) (*parsedTurn, error) {
	var payload turnPayload
	if err := wfnode.DecodeJSON(content, &payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCanvasAnswerFailed, "model output is not valid question json")
	}

	if payload.SuggestComplete {
		return &parsedTurn{Complete: true, Summary: payload.Summary}, nil
	}
	if payload.Question == "" {
		return nil, apperrors.New(apperrors.CodeCanvasAnswerFailed, "model output has neither question nor completion")
	}

	q := &entity.CanvasQuestion{
		ID:      entity.NewQuestionID(),
		Prompt:  payload.Question,
		Type:    questionType(payload.Type),
		Context: payload.Context,
	}
	for i, opt := range payload.Options {
		if opt.Label == "" {
			continue
		}
		id := opt.ID
		if id == "" {
			id = fmt.Sprintf("opt_%d", i+1)
		}
		q.Options = append(q.Options, entity.QuestionOption{
			ID:          id,
			Label:       opt.Label,
			Description: opt.Description,
			Recommended: opt.Recommended,
		})
	}
	for i, ap := range payload.Approaches {
		if ap.Title == "" {
			continue
		}
		id := ap.ID
		if id == "" {
			id = fmt.Sprintf("approach_%d", i+1)
		}
		q.Approaches = append(q.Approaches, entity.ApproachOption{
			ID:          id,
			Title:       ap.Title,
			Description: ap.Description,
			Pros:        ap.Pros,
			Cons:        ap.Cons,
			Recommended: ap.Recommended,
		})
	}
	return &parsedTurn{Question: q}, nil
}

func questionType(t string) entity.QuestionType {
	if t == string(entity.QuestionTypeApproach) {
		return entity.QuestionTypeApproach
	}
	return entity.QuestionTypeSingleChoice
}
