// Package render 封装渲染网关客户端与内联 HTML 渲染
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prism-docs-api/internal/config"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

var tracer = otel.Tracer("render")

// Result 渲染结果
type Result struct {
	Data        []byte
	ContentType string
	Pages       int
	Slides      int
}

// Client 渲染网关客户端
// pdf/pptx 的具体排版在网关侧完成；html 与 mindmap 在本进程内渲染。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建渲染网关客户端
func NewClient(cfg *config.GatewayConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type renderRequest struct {
	Kind    string               `json:"kind"`
	Content *wfmodel.ContentModel `json:"content"`
}

// Render 把内容模型按输出形态渲染为最终字节
func (c *Client) Render(ctx context.Context, kind string, content *wfmodel.ContentModel) (*Result, error) {
	ctx, span := tracer.Start(ctx, "render.Render",
		trace.WithAttributes(attribute.String("render.kind", kind)))
	defer span.End()

	switch kind {
	case "html":
		return renderHTML(content)
	case "mindmap":
		return renderMindmap(content)
	}

	body, err := json.Marshal(renderRequest{Kind: kind, Content: content})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRendererError, "marshal render request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRendererError, "build render request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeRendererError, "renderer gateway unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 256<<20))
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeRendererError, "read render response")
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		// 4xx 表示网关拒绝了内容模型本身，5xx 是网关侧故障
		code := apperrors.CodeRendererError
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			code = apperrors.CodeRenderFailed
		}
		return nil, apperrors.New(code, fmt.Sprintf("renderer returned status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType(kind)
	}

	result := &Result{Data: data, ContentType: contentType}
	switch kind {
	case "pdf":
		result.Pages = content.SectionCount()
	case "pptx":
		result.Slides = content.SlideCount()
	}
	return result, nil
}

// renderMindmap 思维导图直接序列化为 JSON 产物
func renderMindmap(content *wfmodel.ContentModel) (*Result, error) {
	if content == nil || content.Mindmap == nil {
		return nil, apperrors.New(apperrors.CodeRenderFailed, "content model has no mindmap nodes")
	}
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRenderFailed, "marshal mindmap")
	}
	return &Result{Data: data, ContentType: "application/json"}, nil
}

func defaultContentType(kind string) string {
	switch kind {
	case "pdf":
		return "application/pdf"
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "html":
		return "text/html; charset=utf-8"
	case "mindmap":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
