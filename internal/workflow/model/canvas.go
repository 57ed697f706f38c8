package model

// CanvasTurn 是画布会话中一轮已回答的问答。
type CanvasTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CanvasQuestionInput 驱动一次提问调用；History 为空表示生成首问。
type CanvasQuestionInput struct {
	Credential Credential

	Template      string
	Idea          string
	History       []CanvasTurn
	QuestionCount int

	Temperature *float32
	MaxTokens   *int
}

// ReportInput 驱动一次探索报告生成（suggest_complete 之后的一次性调用）。
type ReportInput struct {
	Credential Credential

	Template string
	Idea     string
	Summary  string
	History  []CanvasTurn

	MaxTokens *int
}
