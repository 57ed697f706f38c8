//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"github.com/google/wire"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		DataSet,
		GatewaySet,
		WorkflowSet,
		ApplicationSet,
		HandlerSet,
	)
	return nil, nil, nil
}
