package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	wfmodel "prism-docs-api/internal/workflow/model"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
// 凭据随请求传入，实现方不得缓存或记录 APIKey。
type ChatModelFactory interface {
	Get(ctx context.Context, cred wfmodel.Credential) (model.BaseChatModel, error)
}
