package model

// ContentModel 是转换阶段的中间产物，按输出形态填充对应字段：
// 文档/HTML 填 Sections，幻灯片填 Slides，思维导图填 Mindmap。
type ContentModel struct {
	Title    string       `json:"title"`
	Summary  []string     `json:"summary,omitempty"`
	Sections []Section    `json:"sections,omitempty"`
	Slides   []Slide      `json:"slides,omitempty"`
	Mindmap  *MindmapNode `json:"nodes,omitempty"`
}

type Section struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageHint string `json:"image_hint,omitempty"`
}

type Slide struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speaker_notes,omitempty"`
}

type MindmapNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Children []MindmapNode `json:"children"`
}

// SectionCount 返回用于校验的“页”维度计数。
func (m *ContentModel) SectionCount() int {
	if m == nil {
		return 0
	}
	return len(m.Sections)
}

func (m *ContentModel) SlideCount() int {
	if m == nil {
		return 0
	}
	return len(m.Slides)
}

// NodeCount 递归统计思维导图节点数。
func (m *ContentModel) NodeCount() int {
	if m == nil || m.Mindmap == nil {
		return 0
	}
	return countNodes(m.Mindmap)
}

func countNodes(n *MindmapNode) int {
	if n == nil {
		return 0
	}
	total := 1
	for i := range n.Children {
		total += countNodes(&n.Children[i])
	}
	return total
}
