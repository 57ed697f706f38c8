// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
)

// ArtifactRepository 产物元数据仓储实现
type ArtifactRepository struct {
	client *Client
}

// NewArtifactRepository 创建产物仓储
func NewArtifactRepository(client *Client) *ArtifactRepository {
	return &ArtifactRepository{client: client}
}

var _ repository.ArtifactRepository = (*ArtifactRepository)(nil)

// Create 落库一条产物记录
func (r *ArtifactRepository) Create(ctx context.Context, artifact *entity.Artifact) error {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		INSERT INTO artifacts (id, fingerprint, output_kind, location, content_type, size_bytes,
			title, pages, slides, provider, model, tokens_prompt, tokens_completion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`

	err := q.QueryRowContext(ctx, query,
		artifact.ID, artifact.Fingerprint, string(artifact.OutputKind), artifact.Location,
		artifact.ContentType, artifact.SizeBytes, artifact.Title, artifact.Pages, artifact.Slides,
		artifact.Provider, artifact.Model, artifact.TokensPrompt, artifact.TokensComplete,
	).Scan(&artifact.CreatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

// GetByID 按 ID 查询，不存在返回 nil
func (r *ArtifactRepository) GetByID(ctx context.Context, id string) (*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := selectArtifactColumns + ` WHERE id = $1`

	artifact, err := scanArtifact(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return artifact, nil
}

// GetByFingerprint 按指纹查询最近一条产物
func (r *ArtifactRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.GetByFingerprint")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := selectArtifactColumns + ` WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`

	artifact, err := scanArtifact(q.QueryRowContext(ctx, query, fingerprint))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get artifact by fingerprint: %w", err)
	}
	return artifact, nil
}

// List 按创建时间倒序分页列出
func (r *ArtifactRepository) List(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Artifact], error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.List")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var total int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count artifacts: %w", err)
	}

	query := selectArtifactColumns + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := q.QueryContext(ctx, query, p.Limit(), p.Offset())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	items := make([]*entity.Artifact, 0, p.Limit())
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		items = append(items, artifact)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return repository.NewPagedResult(items, total, p), nil
}

// Delete 删除产物记录
func (r *ArtifactRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.Delete")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	_, err := q.ExecContext(ctx, `DELETE FROM artifacts WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

const selectArtifactColumns = `
	SELECT id, fingerprint, output_kind, location, content_type, size_bytes,
		title, pages, slides, provider, model, tokens_prompt, tokens_completion, created_at
	FROM artifacts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(row rowScanner) (*entity.Artifact, error) {
	var artifact entity.Artifact
	var kind string
	err := row.Scan(
		&artifact.ID, &artifact.Fingerprint, &kind, &artifact.Location,
		&artifact.ContentType, &artifact.SizeBytes, &artifact.Title, &artifact.Pages,
		&artifact.Slides, &artifact.Provider, &artifact.Model,
		&artifact.TokensPrompt, &artifact.TokensComplete, &artifact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	artifact.OutputKind = entity.OutputKind(kind)
	return &artifact, nil
}
