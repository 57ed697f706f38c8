package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/config"
	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

func docContent() *wfmodel.ContentModel {
	return &wfmodel.ContentModel{
		Title:   "Quarterly Report",
		Summary: []string{"Revenue up", "Churn down"},
		Sections: []wfmodel.Section{
			{Title: "Overview", Content: "All metrics trending well."},
			{Title: "Risks", Content: "Hiring is behind plan."},
		},
	}
}

func TestMarkdownToHTML(t *testing.T) {
	page, err := MarkdownToHTML(`Plan <"draft">`, "# Hello\n\nSome **bold** text.")
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<title>Plan &lt;&quot;draft&quot;&gt;</title>")
	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestContentModelToMarkdown(t *testing.T) {
	md := ContentModelToMarkdown(docContent())
	assert.Contains(t, md, "# Quarterly Report")
	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "- Revenue up")
	assert.Contains(t, md, "## Risks\n\nHiring is behind plan.")
}

func TestRenderHTMLInline(t *testing.T) {
	client := NewClient(&config.GatewayConfig{BaseURL: "http://unused", Timeout: time.Second})

	result, err := client.Render(context.Background(), "html", docContent())
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
	assert.Equal(t, 2, result.Pages)
	assert.Contains(t, string(result.Data), "<h2>Overview</h2>")
}

func TestRenderHTMLNoSections(t *testing.T) {
	client := NewClient(&config.GatewayConfig{BaseURL: "http://unused", Timeout: time.Second})

	_, err := client.Render(context.Background(), "html", &wfmodel.ContentModel{Title: "empty"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRenderFailed, apperrors.AsAppError(err).Code)
}

func TestRenderMindmapInline(t *testing.T) {
	client := NewClient(&config.GatewayConfig{BaseURL: "http://unused", Timeout: time.Second})

	content := &wfmodel.ContentModel{
		Title: "Topic",
		Mindmap: &wfmodel.MindmapNode{
			ID: "root", Label: "Topic",
			Children: []wfmodel.MindmapNode{{ID: "c1", Label: "Branch"}},
		},
	}
	result, err := client.Render(context.Background(), "mindmap", content)
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)

	var decoded wfmodel.ContentModel
	require.NoError(t, json.Unmarshal(result.Data, &decoded))
	require.NotNil(t, decoded.Mindmap)
	assert.Equal(t, "Topic", decoded.Mindmap.Label)
}

func TestRenderGatewayPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/render", r.URL.Path)
		var req struct {
			Kind    string                `json:"kind"`
			Content *wfmodel.ContentModel `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pdf", req.Kind)

		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 rendered"))
	}))
	defer server.Close()

	client := NewClient(&config.GatewayConfig{BaseURL: server.URL, Timeout: time.Second})
	result, err := client.Render(context.Background(), "pdf", docContent())
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7 rendered"), result.Data)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, 2, result.Pages)
}

func TestRenderGatewayStatusMapping(t *testing.T) {
	status := http.StatusUnprocessableEntity
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	client := NewClient(&config.GatewayConfig{BaseURL: server.URL, Timeout: time.Second})

	// 4xx：网关拒绝内容模型，走内容回退
	_, err := client.Render(context.Background(), "pdf", docContent())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRenderFailed, apperrors.AsAppError(err).Code)

	// 5xx：网关侧故障，可重试
	status = http.StatusServiceUnavailable
	_, err = client.Render(context.Background(), "pdf", docContent())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRendererError, apperrors.AsAppError(err).Code)
}

func TestRenderGatewayUnreachable(t *testing.T) {
	client := NewClient(&config.GatewayConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})

	_, err := client.Render(context.Background(), "pptx", docContent())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRendererError, apperrors.AsAppError(err).Code)
}
