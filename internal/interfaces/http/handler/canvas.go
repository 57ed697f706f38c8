package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	appcanvas "prism-docs-api/internal/application/canvas"
	"prism-docs-api/internal/config"
	"prism-docs-api/internal/interfaces/http/dto"
	"prism-docs-api/pkg/logger"
)

// CanvasHandler 创意画布接口处理器
type CanvasHandler struct {
	cfg *config.Config
	svc *appcanvas.Service
}

// NewCanvasHandler 创建画布接口处理器
func NewCanvasHandler(cfg *config.Config, svc *appcanvas.Service) *CanvasHandler {
	return &CanvasHandler{cfg: cfg, svc: svc}
}

// Start 创建画布会话并以 SSE 推送进度
// @Summary 创建画布会话并生成首个问题
// @Tags Canvas
// @Accept json
// @Produce text/event-stream
// @Param request body dto.CanvasStartRequest true "会话参数"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/canvas/sessions [post]
func (h *CanvasHandler) Start(c *gin.Context) {
	var req dto.CanvasStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	h.stream(c, func(ctx context.Context, sink appcanvas.EventSink) error {
		_, err := h.svc.Start(ctx, req.Template, req.Idea, provider, model, req.APIKey, sink)
		return err
	})
}

// Get 查询会话
// @Summary 查询画布会话
// @Tags Canvas
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.CanvasSessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/canvas/sessions/{sid} [get]
func (h *CanvasHandler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("sid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.NewCanvasSessionResponse(session))
}

// Answer 提交回答并以 SSE 推送进度
// @Summary 回答当前问题并推进会话
// @Tags Canvas
// @Accept json
// @Produce text/event-stream
// @Param sid path string true "会话 ID"
// @Param request body dto.CanvasAnswerRequest true "回答"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/canvas/sessions/{sid}/answers [post]
func (h *CanvasHandler) Answer(c *gin.Context) {
	var req dto.CanvasAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sessionID := c.Param("sid")
	h.stream(c, func(ctx context.Context, sink appcanvas.EventSink) error {
		_, err := h.svc.Answer(ctx, sessionID, req.QuestionID, req.Answer, req.APIKey, sink)
		return err
	})
}

// GoBack 撤销最近一轮问答
// @Summary 回退到上一个问题
// @Tags Canvas
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.CanvasSessionResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/canvas/sessions/{sid}/back [post]
func (h *CanvasHandler) GoBack(c *gin.Context) {
	session, err := h.svc.GoBack(c.Request.Context(), c.Param("sid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.NewCanvasSessionResponse(session))
}

// Report 生成实现计划报告
// @Summary 基于已收尾的会话生成实现计划
// @Tags Canvas
// @Accept json
// @Produce text/markdown
// @Param sid path string true "会话 ID"
// @Param request body dto.CanvasReportRequest false "报告参数"
// @Success 200 "report content"
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/canvas/sessions/{sid}/report [post]
func (h *CanvasHandler) Report(c *gin.Context) {
	var req dto.CanvasReportRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	data, contentType, err := h.svc.Report(c.Request.Context(), c.Param("sid"), req.Format, req.APIKey)
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	c.Data(200, contentType, data)
}

// Delete 删除会话
// @Summary 删除画布会话
// @Tags Canvas
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 204 "No Content"
// @Router /api/v1/canvas/sessions/{sid} [delete]
func (h *CanvasHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("sid")); err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.NoContent(c)
}

// stream 以 SSE 推送一轮画布事件，终态事件后关闭流
func (h *CanvasHandler) stream(c *gin.Context, run func(ctx context.Context, sink appcanvas.EventSink) error) {
	ctx := c.Request.Context()

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := make(chan appcanvas.Event, 8)
	done := make(chan struct{})

	go func() {
		defer close(events)
		sink := appcanvas.EventSinkFunc(func(ev appcanvas.Event) {
			select {
			case events <- ev:
			case <-done:
			}
		})
		if err := run(ctx, sink); err != nil {
			// 终态 error 事件已由服务发布，这里只留日志
			logger.Warn(ctx, "canvas turn failed", "error", err.Error())
		}
	}()
	defer close(done)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), canvasEventFrame(ev))
			return !ev.Terminal()
		case <-ctx.Done():
			// 客户端断开，本轮随请求上下文取消
			return false
		}
	})
}

func canvasEventFrame(ev appcanvas.Event) *dto.CanvasEventFrame {
	frame := &dto.CanvasEventFrame{
		Type:    string(ev.Type),
		State:   string(ev.State),
		Message: ev.Message,
		Code:    ev.Code,
	}
	if ev.Session != nil {
		frame.Session = dto.NewCanvasSessionResponse(ev.Session)
	}
	return frame
}
