package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptTransformDocumentV1   PromptID = "transform_document_v1"
	PromptTransformSlidesV1     PromptID = "transform_slides_v1"
	PromptTransformMindmapV1    PromptID = "transform_mindmap_v1"
	PromptCanvasFirstQuestionV1 PromptID = "canvas_first_question_v1"
	PromptCanvasNextQuestionV1  PromptID = "canvas_next_question_v1"
	PromptCanvasReportV1        PromptID = "canvas_report_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptTransformDocumentV1:
		return "templates/transform_document_v1.system.txt", "templates/transform_document_v1.user.txt", nil
	case PromptTransformSlidesV1:
		return "templates/transform_slides_v1.system.txt", "templates/transform_slides_v1.user.txt", nil
	case PromptTransformMindmapV1:
		return "templates/transform_mindmap_v1.system.txt", "templates/transform_mindmap_v1.user.txt", nil
	case PromptCanvasFirstQuestionV1:
		return "templates/canvas_question_v1.system.txt", "templates/canvas_first_question_v1.user.txt", nil
	case PromptCanvasNextQuestionV1:
		return "templates/canvas_question_v1.system.txt", "templates/canvas_next_question_v1.user.txt", nil
	case PromptCanvasReportV1:
		return "templates/canvas_report_v1.system.txt", "templates/canvas_report_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
