package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	wfmodel "prism-docs-api/internal/workflow/model"
	apperrors "prism-docs-api/pkg/errors"
)

// MarkdownToHTML 把 markdown 文本转为完整 HTML 页面
func MarkdownToHTML(title, md string) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRenderFailed, "convert markdown")
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", htmlEscape(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(buf.Bytes())
	page.WriteString("\n</body>\n</html>\n")
	return page.Bytes(), nil
}

// renderHTML 把内容模型拼成 markdown 再经 goldmark 渲染
func renderHTML(content *wfmodel.ContentModel) (*Result, error) {
	if content == nil || len(content.Sections) == 0 {
		return nil, apperrors.New(apperrors.CodeRenderFailed, "content model has no sections")
	}

	md := ContentModelToMarkdown(content)
	data, err := MarkdownToHTML(content.Title, md)
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:        data,
		ContentType: "text/html; charset=utf-8",
		Pages:       content.SectionCount(),
	}, nil
}

// ContentModelToMarkdown 把文档形态的内容模型序列化为 markdown
func ContentModelToMarkdown(content *wfmodel.ContentModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(content.Title))

	if len(content.Summary) > 0 {
		b.WriteString("## Executive Summary\n\n")
		for _, point := range content.Summary {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(point))
		}
		b.WriteString("\n")
	}

	for _, section := range content.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", strings.TrimSpace(section.Title), strings.TrimSpace(section.Content))
	}

	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
