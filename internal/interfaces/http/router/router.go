// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/infrastructure/persistence/redis"
	"prism-docs-api/internal/interfaces/http/handler"
	"prism-docs-api/internal/interfaces/http/middleware"
)

// Handlers 路由所需的全部处理器
type Handlers struct {
	Health   *handler.HealthHandler
	Generate *handler.GenerateHandler
	Canvas   *handler.CanvasHandler
	Artifact *handler.ArtifactHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	limiter  *redis.RateLimiter
	handlers Handlers
}

// New 创建新的路由器
func New(cfg *config.Config, limiter *redis.RateLimiter, handlers Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		limiter:  limiter,
		handlers: handlers,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点不参与限流
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RateLimit(r.cfg.Security.RateLimit, r.limiter))

	// 生成流水线
	v1.POST("/generate", r.handlers.Generate.Generate)
	v1.POST("/generate/fingerprint", r.handlers.Generate.Fingerprint)
	v1.DELETE("/cache/:fingerprint", r.handlers.Generate.InvalidateCache)

	// 产物
	artifacts := v1.Group("/artifacts")
	{
		artifacts.GET("", r.handlers.Artifact.List)
		artifacts.GET("/:aid", r.handlers.Artifact.Get)
		artifacts.GET("/:aid/download", r.handlers.Artifact.Download)
		artifacts.DELETE("/:aid", r.handlers.Artifact.Delete)
	}

	// 创意画布
	canvas := v1.Group("/canvas/sessions")
	{
		canvas.POST("", r.handlers.Canvas.Start)
		canvas.GET("/:sid", r.handlers.Canvas.Get)
		canvas.DELETE("/:sid", r.handlers.Canvas.Delete)
		canvas.POST("/:sid/answers", r.handlers.Canvas.Answer)
		canvas.POST("/:sid/back", r.handlers.Canvas.GoBack)
		canvas.POST("/:sid/report", r.handlers.Canvas.Report)
	}
}
