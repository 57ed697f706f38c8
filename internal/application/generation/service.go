package generation

import (
	"context"
	"errors"
	"fmt"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
	apperrors "prism-docs-api/pkg/errors"
	"prism-docs-api/pkg/logger"
	"prism-docs-api/pkg/metrics"
)

// Service 生成服务入口
// 计算指纹、查缓存、合并并发构建，未命中时交给编排器执行流水线。
type Service struct {
	cfg          *config.GenerationConfig
	storageCfg   *config.StorageConfig
	orchestrator *Orchestrator
	registry     *BuildRegistry
	cache        repository.CacheStore
	artifacts    repository.ArtifactRepository
	files        ArtifactStore
	txMgr        repository.Transactor
}

// NewService 创建生成服务
func NewService(
	cfg *config.GenerationConfig,
	storageCfg *config.StorageConfig,
	orchestrator *Orchestrator,
	registry *BuildRegistry,
	cache repository.CacheStore,
	artifacts repository.ArtifactRepository,
	files ArtifactStore,
	txMgr repository.Transactor,
) *Service {
	return &Service{
		cfg:          cfg,
		storageCfg:   storageCfg,
		orchestrator: orchestrator,
		registry:     registry,
		cache:        cache,
		artifacts:    artifacts,
		files:        files,
		txMgr:        txMgr,
	}
}

// Generate 处理一次生成请求，事件推入 sink
// 终态事件恰好一个：缓存命中为 cache_hit，新构建成功为 complete，
// 失败为 error。apiKey 只随上下文流向提供方，不落日志不落存储。
func (s *Service) Generate(ctx context.Context, req entity.GenerationRequest, apiKey string, sink EventSink) error {
	fingerprint := ComputeFingerprint(&req)
	ctx = logger.WithContext(ctx, logger.FingerprintKey, fingerprint)

	// 缓存命中短路，不创建会话
	if req.CachePolicy.Reuse {
		entry, err := s.cache.Lookup(ctx, fingerprint)
		switch {
		case err == nil:
			logger.Info(ctx, "cache hit", "artifact_id", entry.ArtifactID)
			metrics.GenerationSessionsTotal.WithLabelValues(string(req.OutputKind), "cache_hit").Inc()
			sink.Publish(entity.NewCacheHitEvent(s.cacheEntryRef(entry)))
			return nil
		case errors.Is(err, repository.ErrCacheMiss):
			// 未命中，进入构建
		default:
			// 缓存不可用时降级为直接构建
			logger.Warn(ctx, "cache lookup failed, building without cache", "error", err.Error())
		}
	}

	ctx = WithAPIKey(ctx, apiKey)

	// 同指纹并发构建合并：fn 只在首个请求中执行
	ran := false
	result, err := s.registry.Do(ctx, fingerprint, func() (*entity.CacheEntry, error) {
		ran = true
		session := entity.NewGenerationSession(fingerprint, req)
		return s.orchestrator.Run(ctx, session, sink)
	})
	if err != nil {
		if !ran {
			// 等待者的 sink 没有收到编排器的终态事件，在此补发
			appErr := apperrors.AsAppError(err)
			sink.Publish(entity.NewErrorEvent(string(appErr.Code), appErr.Message))
		}
		return err
	}

	if !ran {
		// 挂在他人构建上的请求复用结果，按缓存命中上报
		metrics.GenerationSessionsTotal.WithLabelValues(string(req.OutputKind), "cache_hit").Inc()
		sink.Publish(entity.NewCacheHitEvent(s.cacheEntryRef(result.Entry)))
	}
	return nil
}

// Fingerprint 计算请求指纹，供预检接口使用
func (s *Service) Fingerprint(req *entity.GenerationRequest) string {
	return ComputeFingerprint(req)
}

// Invalidate 删除指纹对应的缓存条目，产物记录保留
func (s *Service) Invalidate(ctx context.Context, fingerprint string) error {
	if err := s.cache.Invalidate(ctx, fingerprint); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to invalidate cache entry")
	}
	logger.Info(ctx, "cache entry invalidated", "fingerprint", fingerprint)
	return nil
}

// GetArtifact 按 ID 查询产物元数据
func (s *Service) GetArtifact(ctx context.Context, id string) (*entity.Artifact, error) {
	artifact, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to query artifact")
	}
	if artifact == nil {
		return nil, apperrors.ErrArtifactNotFound
	}
	return artifact, nil
}

// DeleteArtifact 删除产物：元数据行在事务中删除，成功后清理文件与缓存
// 文件与缓存清理失败不回滚元数据删除，只留日志。
func (s *Service) DeleteArtifact(ctx context.Context, id string) error {
	artifact, err := s.GetArtifact(ctx, id)
	if err != nil {
		return err
	}

	err = s.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.artifacts.Delete(txCtx, id)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete artifact")
	}

	if err := s.files.Remove(ctx, artifact.Location); err != nil {
		logger.Warn(ctx, "failed to remove artifact file", "artifact_id", id, "error", err.Error())
	}
	if err := s.cache.Invalidate(ctx, artifact.Fingerprint); err != nil {
		logger.Warn(ctx, "failed to invalidate cache for deleted artifact", "artifact_id", id, "error", err.Error())
	}
	logger.Info(ctx, "artifact deleted", "artifact_id", id)
	return nil
}

// ListArtifacts 分页列出产物
func (s *Service) ListArtifacts(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Artifact], error) {
	result, err := s.artifacts.List(ctx, p)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list artifacts")
	}
	return result, nil
}

func (s *Service) cacheEntryRef(entry *entity.CacheEntry) *entity.ArtifactRef {
	return &entity.ArtifactRef{
		ArtifactID:  entry.ArtifactID,
		DownloadURL: fmt.Sprintf("/api/v1/artifacts/%s/download", entry.ArtifactID),
		Title:       entry.Title,
		Pages:       entry.Pages,
		Slides:      entry.Slides,
		ExpiresIn:   int(s.storageCfg.DownloadTTL.Seconds()),
	}
}
