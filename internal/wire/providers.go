// Package wire 提供依赖注入配置
package wire

import (
	"github.com/google/wire"

	appcanvas "prism-docs-api/internal/application/canvas"
	appgen "prism-docs-api/internal/application/generation"
	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/repository"
	"prism-docs-api/internal/infrastructure/extraction"
	"prism-docs-api/internal/infrastructure/llm"
	"prism-docs-api/internal/infrastructure/messaging"
	"prism-docs-api/internal/infrastructure/persistence/postgres"
	"prism-docs-api/internal/infrastructure/persistence/redis"
	"prism-docs-api/internal/infrastructure/render"
	"prism-docs-api/internal/infrastructure/storage"
	"prism-docs-api/internal/interfaces/http/handler"
	"prism-docs-api/internal/interfaces/http/router"
	wfchain "prism-docs-api/internal/workflow/chain"
	workflowport "prism-docs-api/internal/workflow/port"
)

// DataSet 数据层提供者集合
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewArtifactRepository,
	ProvideRedisClient,
	redis.NewCacheStore,
	redis.NewCanvasStore,
	redis.NewRateLimiter,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ArtifactRepository), new(*postgres.ArtifactRepository)),
	wire.Bind(new(repository.CacheStore), new(*redis.CacheStore)),
	wire.Bind(new(repository.CanvasSessionStore), new(*redis.CanvasStore)),
	ProvideMessagingProducer,
	messaging.NewGenerationEvents,
	wire.Bind(new(appgen.LifecycleEvents), new(*messaging.GenerationEvents)),
)

// GatewaySet 外部能力网关提供者集合
var GatewaySet = wire.NewSet(
	ProvideExtractorClient,
	ProvideRendererClient,
	ProvideArtifactStore,
	wire.Bind(new(appgen.Extractor), new(*extraction.Client)),
	wire.Bind(new(appgen.Renderer), new(*render.Client)),
	wire.Bind(new(appcanvas.Renderer), new(*render.Client)),
	wire.Bind(new(appgen.ArtifactStore), new(*storage.Store)),
)

// WorkflowSet 模型工作流提供者集合
var WorkflowSet = wire.NewSet(
	llm.NewEinoFactory,
	wfchain.NewTransformChain,
	wfchain.NewCanvasQuestionChain,
	wfchain.NewReportChain,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wire.Bind(new(appgen.Transformer), new(*wfchain.TransformChain)),
	wire.Bind(new(appcanvas.QuestionModel), new(*wfchain.CanvasQuestionChain)),
	wire.Bind(new(appcanvas.ReportModel), new(*wfchain.ReportChain)),
)

// ApplicationSet 应用层提供者集合
var ApplicationSet = wire.NewSet(
	ProvideGenerationConfig,
	ProvideStorageConfig,
	ProvideCanvasConfig,
	appgen.NewValidator,
	appgen.NewOrchestrator,
	appgen.NewBuildRegistry,
	appgen.NewService,
	appcanvas.NewService,
)

// HandlerSet 接口层提供者集合
var HandlerSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewGenerateHandler,
	handler.NewCanvasHandler,
	handler.NewArtifactHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供 Redis Stream 消息生产者
func ProvideMessagingProducer(redisClient *redis.Client) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), 0)
}

// ProvideExtractorClient 提供文本抽取网关客户端
func ProvideExtractorClient(cfg *config.Config) *extraction.Client {
	return extraction.NewClient(&cfg.Gateways.Extractor)
}

// ProvideRendererClient 提供渲染网关客户端
func ProvideRendererClient(cfg *config.Config) *render.Client {
	return render.NewClient(&cfg.Gateways.Renderer)
}

// ProvideArtifactStore 提供产物文件存储
func ProvideArtifactStore(cfg *config.Config) (*storage.Store, error) {
	return storage.NewStore(&cfg.Storage)
}

// ProvideGenerationConfig 提供生成流水线配置
func ProvideGenerationConfig(cfg *config.Config) *config.GenerationConfig {
	return &cfg.Generation
}

// ProvideStorageConfig 提供存储配置
func ProvideStorageConfig(cfg *config.Config) *config.StorageConfig {
	return &cfg.Storage
}

// ProvideCanvasConfig 提供画布配置
func ProvideCanvasConfig(cfg *config.Config) *config.CanvasConfig {
	return &cfg.Canvas
}
