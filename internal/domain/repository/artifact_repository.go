// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"prism-docs-api/internal/domain/entity"
)

// ArtifactRepository 产物元数据存储
type ArtifactRepository interface {
	// Create 落库一条产物记录
	Create(ctx context.Context, artifact *entity.Artifact) error

	// GetByID 按 ID 查询，不存在返回 nil
	GetByID(ctx context.Context, id string) (*entity.Artifact, error)

	// GetByFingerprint 按指纹查询最近一条产物
	GetByFingerprint(ctx context.Context, fingerprint string) (*entity.Artifact, error)

	// List 按创建时间倒序分页列出
	List(ctx context.Context, p Pagination) (*PagedResult[*entity.Artifact], error)

	// Delete 删除产物记录
	Delete(ctx context.Context, id string) error
}
