package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

// Validator 产物校验阶段
// 轻量合理性检查：非空、格式魔数、结构计数在界内。深层格式正确性
// 由渲染网关负责。
type Validator struct {
	maxPages  int
	maxSlides int
}

// NewValidator 创建校验器
func NewValidator(cfg *config.GenerationConfig) *Validator {
	return &Validator{maxPages: cfg.MaxPages, maxSlides: cfg.MaxSlides}
}

// Validate 校验渲染产物
func (v *Validator) Validate(kind string, result *render.Result, content *wfmodel.ContentModel) error {
	if result == nil || len(result.Data) == 0 {
		return apperrors.New(apperrors.CodeValidationFailed, "artifact is empty")
	}

	switch kind {
	case "pdf":
		if !bytes.HasPrefix(result.Data, []byte("%PDF-")) {
			return apperrors.New(apperrors.CodeValidationFailed, "artifact is not a valid pdf")
		}
		if result.Pages < 1 || result.Pages > v.maxPages {
			return apperrors.New(apperrors.CodeValidationFailed,
				fmt.Sprintf("page count %d outside [1, %d]", result.Pages, v.maxPages))
		}
	case "pptx":
		// pptx 是 zip 容器
		if !bytes.HasPrefix(result.Data, []byte("PK")) {
			return apperrors.New(apperrors.CodeValidationFailed, "artifact is not a valid pptx")
		}
		if result.Slides < 1 || result.Slides > v.maxSlides {
			return apperrors.New(apperrors.CodeValidationFailed,
				fmt.Sprintf("slide count %d outside [1, %d]", result.Slides, v.maxSlides))
		}
	case "html":
		if strings.TrimSpace(string(result.Data)) == "" {
			return apperrors.New(apperrors.CodeValidationFailed, "html artifact is empty")
		}
	case "mindmap":
		var decoded wfmodel.ContentModel
		if err := json.Unmarshal(result.Data, &decoded); err != nil {
			return apperrors.Wrap(err, apperrors.CodeValidationFailed, "mindmap artifact is not valid json")
		}
		if decoded.Mindmap == nil || decoded.Mindmap.Label == "" {
			return apperrors.New(apperrors.CodeValidationFailed, "mindmap artifact has no root node")
		}
	default:
		return apperrors.New(apperrors.CodeUnsupportedOutput, "unsupported output kind: "+kind)
	}

	return nil
}
