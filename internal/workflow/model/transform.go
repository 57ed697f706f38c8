package model

// TransformInput 驱动一次“素材 → 内容模型”的转换调用。
type TransformInput struct {
	Credential Credential

	// Kind 为输出形态：pdf / pptx / mindmap / html。
	Kind    string
	Sources []SourceText

	Audience         string
	ImageStyle       string
	Temperature      *float32
	MaxTokens        *int
	MaxSlides        int
	MaxSummaryPoints int
}
