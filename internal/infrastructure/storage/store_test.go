package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/config"
	apperrors "prism-docs-api/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&config.StorageConfig{OutputDir: filepath.Join(t.TempDir(), "artifacts")})
	require.NoError(t, err)
	return store
}

func TestStoreSaveOpenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	location, err := store.Save(ctx, "art_abc", "pdf", []byte("%PDF-1.7 body"))
	require.NoError(t, err)
	assert.Equal(t, "art_abc.pdf", location)

	reader, size, err := store.Open(ctx, location)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 body"), data)
	assert.Equal(t, int64(len(data)), size)
}

func TestStoreOpenMissing(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open(context.Background(), "art_nope.pdf")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeArtifactNotFound, appErr.Code)
}

func TestStoreOpenRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, location := range []string{"../secret", "a/b.pdf", `a\b.pdf`, ""} {
		_, _, err := store.Open(context.Background(), location)
		assert.Error(t, err, "location %q must be rejected", location)
	}
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	location, err := store.Save(ctx, "art_del", "html", []byte("<html></html>"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, location))
	_, _, err = store.Open(ctx, location)
	assert.Error(t, err)

	// 幂等：文件已不存在不算错误
	require.NoError(t, store.Remove(ctx, location))
}

func TestStoreExtensionPerKind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := map[string]string{
		"pdf":     ".pdf",
		"pptx":    ".pptx",
		"html":    ".html",
		"mindmap": ".json",
	}
	for kind, ext := range tests {
		location, err := store.Save(ctx, "art_"+kind, kind, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, ext, filepath.Ext(location), "kind %s", kind)
	}
}
