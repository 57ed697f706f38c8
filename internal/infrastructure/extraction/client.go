// Package extraction 封装文本抽取网关的 HTTP 客户端
package extraction

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
	"prism-docs-api/internal/domain/entity"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

var tracer = otel.Tracer("extraction")

// Client 文本抽取网关客户端
// 网关负责 url 抓取与 pdf/docx/html 解析，本服务只消费纯文本结果。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建抽取网关客户端
func NewClient(cfg *config.GatewayConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type extractRequest struct {
	Sources []entity.SourceItem `json:"sources"`
}

type extractResponse struct {
	Texts []struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"texts"`
	Error string `json:"error,omitempty"`
}

// Extract 把输入源批量提交给网关，返回抽取出的纯文本
// 任何失败都视为输入侧错误，调用方不做重试。
func (c *Client) Extract(ctx context.Context, sources []entity.SourceItem) ([]wfmodel.SourceText, error) {
	ctx, span := tracer.Start(ctx, "extraction.Extract",
		trace.WithAttributes(attribute.Int("extraction.source_count", len(sources))))
	defer span.End()

	body, err := json.Marshal(extractRequest{Sources: sources})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExtractorError, "marshal extract request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExtractorError, "build extract request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeExtractorError, "extractor gateway unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeExtractorError, "read extract response")
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return nil, apperrors.New(apperrors.CodeExtractionFailed,
			fmt.Sprintf("extractor returned status %d", resp.StatusCode))
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeExtractorError, "decode extract response")
	}
	if parsed.Error != "" {
		return nil, apperrors.New(apperrors.CodeExtractionFailed, parsed.Error)
	}

	texts := make([]wfmodel.SourceText, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		texts = append(texts, wfmodel.SourceText{Name: t.Name, Content: t.Content})
	}
	if len(texts) == 0 {
		return nil, apperrors.New(apperrors.CodeExtractionFailed, "no extractable text in sources")
	}

	return texts, nil
}
