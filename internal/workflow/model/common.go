package model

import "time"

// Credential 携带一次调用所需的模型凭据。
// APIKey 随请求传入，只向对应 provider 透传，禁止写入日志或持久化。
type Credential struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// SourceText 是抽取阶段产出的一段纯文本素材。
type SourceText struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
}
