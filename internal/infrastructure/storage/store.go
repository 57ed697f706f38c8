// Package storage 提供产物文件的本地存储
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prism-docs-api/internal/config"
	apperrors "prism-docs-api/pkg/errors"
)

var tracer = otel.Tracer("storage")

// Store 本地文件产物存储
// Location 是相对输出目录的文件名，落库与缓存条目均引用它。
type Store struct {
	outputDir string
}

// NewStore 创建产物存储，输出目录不存在时创建
func NewStore(cfg *config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Store{outputDir: cfg.OutputDir}, nil
}

// Save 写入产物字节，返回 location
func (s *Store) Save(ctx context.Context, artifactID, kind string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.Save",
		trace.WithAttributes(
			attribute.String("storage.artifact_id", artifactID),
			attribute.Int("storage.size_bytes", len(data)),
		))
	defer span.End()

	location := artifactID + extensionFor(kind)
	path := filepath.Join(s.outputDir, location)

	// 先写临时文件再改名，读取方不会看到半成品
	tmp, err := os.CreateTemp(s.outputDir, ".tmp-*")
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		span.RecordError(err)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		span.RecordError(err)
		return "", fmt.Errorf("failed to close artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		span.RecordError(err)
		return "", fmt.Errorf("failed to move artifact into place: %w", err)
	}

	return location, nil
}

// Open 打开产物文件供下载
func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	_, span := tracer.Start(ctx, "storage.Open",
		trace.WithAttributes(attribute.String("storage.location", location)))
	defer span.End()

	// location 只允许单层文件名
	if location == "" || strings.ContainsAny(location, `/\`) {
		return nil, 0, apperrors.ErrArtifactNotFound
	}

	path := filepath.Join(s.outputDir, location)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, apperrors.ErrArtifactNotFound
		}
		span.RecordError(err)
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		span.RecordError(err)
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Remove 删除产物文件
func (s *Store) Remove(ctx context.Context, location string) error {
	_, span := tracer.Start(ctx, "storage.Remove",
		trace.WithAttributes(attribute.String("storage.location", location)))
	defer span.End()

	if location == "" || strings.ContainsAny(location, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.outputDir, location))
	if err != nil && !os.IsNotExist(err) {
		span.RecordError(err)
		return err
	}
	return nil
}

func extensionFor(kind string) string {
	switch kind {
	case "pdf":
		return ".pdf"
	case "pptx":
		return ".pptx"
	case "html":
		return ".html"
	case "mindmap":
		return ".mindmap.json"
	default:
		return ".bin"
	}
}
