// Package llm 提供基于 Eino 的 ChatModel 工厂
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"prism-docs-api/internal/config"
	apperrors "prism-docs-api/pkg/errors"

	wfmodel "prism-docs-api/internal/workflow/model"
)

// EinoFactory 按请求凭据构建 Eino ChatModel。
// APIKey 随请求传入，实例不缓存、不落日志；provider 的 BaseURL、
// 默认模型与超时取自配置。
type EinoFactory struct {
	config *config.LLMConfig
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{config: &cfg.LLM}
}

// Get 按凭据构建 ChatModel；provider 为空时使用默认 provider
func (f *EinoFactory) Get(ctx context.Context, cred wfmodel.Credential) (model.BaseChatModel, error) {
	name := strings.TrimSpace(cred.Provider)
	if name == "" {
		name = f.config.DefaultProvider
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	apiKey := strings.TrimSpace(cred.APIKey)
	if apiKey == "" {
		apiKey = providerCfg.APIKey
	}
	if apiKey == "" {
		return nil, apperrors.ErrAPIKeyMissing
	}

	baseURL := strings.TrimSpace(cred.BaseURL)
	if baseURL == "" {
		baseURL = providerCfg.BaseURL
	}

	modelName := strings.TrimSpace(cred.Model)
	if modelName == "" {
		modelName = providerCfg.Model
	}

	// 使用 Eino 的 OpenAI 适配器
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		MaxTokens:   ptrInt(providerCfg.MaxTokens),
		Temperature: ptrFloat32(float32(providerCfg.Temperature)),
		Timeout:     providerCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	return chatModel, nil
}

func ptrFloat32(f float32) *float32 {
	return &f
}

func ptrInt(i int) *int {
	return &i
}
