package node

import (
	"fmt"
	"strings"

	wfmodel "prism-docs-api/internal/workflow/model"
)

// 单个素材在提示词中的最大长度（按 rune），避免长文档撑爆上下文。
const maxSourceRunes = 8000

// BuildSourcesBlock 拼接抽取后的素材文本，供转换提示词使用。
func BuildSourcesBlock(sources []wfmodel.SourceText) string {
	if len(sources) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(sources))
	for i, s := range sources {
		content := strings.TrimSpace(s.Content)
		if content == "" {
			continue
		}
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = fmt.Sprintf("Source %d", i+1)
		}
		blocks = append(blocks, fmt.Sprintf("=== %s ===\n%s", name, TruncateByRunes(content, maxSourceRunes)))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildHistoryBlock 按 Q1/A1 的编号格式拼接画布问答历史。
func BuildHistoryBlock(history []wfmodel.CanvasTurn) string {
	if len(history) == 0 {
		return "(no answers yet)"
	}
	var b strings.Builder
	for i, turn := range history {
		fmt.Fprintf(&b, "\nQ%d: %s\nA%d: %s\n", i+1, strings.TrimSpace(turn.Question), i+1, strings.TrimSpace(turn.Answer))
	}
	return b.String()
}
