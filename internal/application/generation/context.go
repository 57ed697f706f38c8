package generation

import "context"

// apiKeyContextKey 每请求 API Key 的上下文键
// Key 只随 ctx 流经本次会话，不进入请求实体，不参与指纹，不落任何存储。
type apiKeyContextKey struct{}

// WithAPIKey 把每请求的提供方 API Key 放入上下文
func WithAPIKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, apiKeyContextKey{}, key)
}

func apiKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(apiKeyContextKey{}).(string); ok {
		return key
	}
	return ""
}
