package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	appgen "prism-docs-api/internal/application/generation"
	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/interfaces/http/dto"
	"prism-docs-api/pkg/logger"
)

// GenerateHandler 生成接口处理器
type GenerateHandler struct {
	cfg *config.Config
	svc *appgen.Service
}

// NewGenerateHandler 创建生成接口处理器
func NewGenerateHandler(cfg *config.Config, svc *appgen.Service) *GenerateHandler {
	return &GenerateHandler{cfg: cfg, svc: svc}
}

// Generate 提交生成请求并以 SSE 推送进度
// @Summary 提交生成请求
// @Description 提交文档/幻灯片/脑图/网页生成请求，进度与结果通过 SSE 推送
// @Tags Generation
// @Accept json
// @Produce text/event-stream
// @Param request body dto.GenerateRequest true "生成请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	genReq := req.ToEntity()
	genReq.Provider = provider
	genReq.Model = model

	ctx := c.Request.Context()

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 事件通道带缓冲，服务端不因慢消费者阻塞流水线太久
	events := make(chan entity.StreamEvent, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)
		sink := appgen.EventSinkFunc(func(ev entity.StreamEvent) {
			select {
			case events <- ev:
			case <-done:
			}
		})
		if err := h.svc.Generate(ctx, genReq, req.APIKey, sink); err != nil {
			// 终态 error 事件已由服务发布，这里只留日志
			logger.Warn(ctx, "generation request failed", "error", err.Error())
		}
	}()
	defer close(done)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return !ev.Terminal()
		case <-ctx.Done():
			// 客户端断开，流水线随请求上下文取消
			return false
		}
	})
}

// Fingerprint 预检指纹
// @Summary 计算请求指纹
// @Description 在不触发构建的情况下返回请求的内容指纹
// @Tags Generation
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.FingerprintResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/generate/fingerprint [post]
func (h *GenerateHandler) Fingerprint(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	genReq := req.ToEntity()
	dto.Success(c, &dto.FingerprintResponse{Fingerprint: h.svc.Fingerprint(&genReq)})
}

// InvalidateCache 删除指纹缓存
// @Summary 删除指纹对应的缓存条目
// @Tags Generation
// @Produce json
// @Param fingerprint path string true "内容指纹"
// @Success 204 "No Content"
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/cache/{fingerprint} [delete]
func (h *GenerateHandler) InvalidateCache(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	if fingerprint == "" {
		dto.BadRequest(c, "fingerprint is required")
		return
	}
	if err := h.svc.Invalidate(c.Request.Context(), fingerprint); err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.NoContent(c)
}
