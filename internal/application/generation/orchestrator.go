package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prism-docs-api/internal/config"
	"prism-docs-api/internal/domain/entity"
	"prism-docs-api/internal/domain/repository"
	obs "prism-docs-api/internal/observability/eino"
	"prism-docs-api/internal/infrastructure/render"
	wfmodel "prism-docs-api/internal/workflow/model"
	wfnode "prism-docs-api/internal/workflow/node"
	apperrors "prism-docs-api/pkg/errors"
	"prism-docs-api/pkg/logger"
	"prism-docs-api/pkg/metrics"
)

// Orchestrator 生成流水线编排器
// 驱动 Detecting→Extracting→Transforming→Rendering→Validating 状态机，
// Transform/Render/Validate 共享一个重试预算；抽取失败视为输入错误
// 不重试；鉴权/配额错误立即上报。
type Orchestrator struct {
	cfg         *config.GenerationConfig
	storageCfg  *config.StorageConfig
	extractor   Extractor
	transformer Transformer
	renderer    Renderer
	store       ArtifactStore
	validator   *Validator
	cache       repository.CacheStore
	artifacts   repository.ArtifactRepository
	events      LifecycleEvents
}

// NewOrchestrator 创建编排器
func NewOrchestrator(
	cfg *config.GenerationConfig,
	storageCfg *config.StorageConfig,
	extractor Extractor,
	transformer Transformer,
	renderer Renderer,
	store ArtifactStore,
	validator *Validator,
	cache repository.CacheStore,
	artifacts repository.ArtifactRepository,
	events LifecycleEvents,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		storageCfg:  storageCfg,
		extractor:   extractor,
		transformer: transformer,
		renderer:    renderer,
		store:       store,
		validator:   validator,
		cache:       cache,
		artifacts:   artifacts,
		events:      events,
	}
}

// Run 执行一次完整构建
// 终态事件（complete/error）恰好发布一个且总在最后；返回的缓存条目
// 供并发等待者共享。取消的会话不写缓存。
func (o *Orchestrator) Run(ctx context.Context, session *entity.GenerationSession, sink EventSink) (*entity.CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SessionTimeout)
	defer cancel()

	ctx = logger.WithContext(ctx, logger.FingerprintKey, session.Fingerprint)
	ctx = logger.WithContext(ctx, logger.SessionIDKey, session.ID)

	usage := &obs.UsageCollector{}
	ctx = obs.WithUsageCollector(ctx, usage)

	entry, err := o.run(ctx, session, sink, usage)
	if err != nil {
		appErr := apperrors.AsAppError(o.normalizeErr(ctx, err))
		session.Fail(appErr.Message)
		metrics.GenerationSessionsTotal.WithLabelValues(string(session.Request.OutputKind), "failed").Inc()
		logger.Error(ctx, "generation session failed", appErr,
			"stage", string(session.Stage),
			"retries_used", session.RetriesUsed,
		)
		sink.Publish(entity.NewErrorEvent(string(appErr.Code), appErr.Message))
		o.events.GenerationFailed(context.WithoutCancel(ctx), session.Fingerprint,
			string(session.Request.OutputKind), string(appErr.Code))
		return nil, appErr
	}

	metrics.GenerationSessionsTotal.WithLabelValues(string(session.Request.OutputKind), "complete").Inc()
	return entry, nil
}

// normalizeErr 把 ctx 相关错误映射到稳定错误码
func (o *Orchestrator) normalizeErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.CodeSessionTimeout, "session timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.CodeSessionCancelled, "session cancelled")
	default:
		return err
	}
}

func (o *Orchestrator) run(ctx context.Context, session *entity.GenerationSession, sink EventSink, usage *obs.UsageCollector) (*entity.CacheEntry, error) {
	kind := string(session.Request.OutputKind)

	// 跨实例构建锁；缓存不可用时降级为无锁构建
	lockHeld := false
	if acquired, err := o.cache.AcquireBuildLock(ctx, session.Fingerprint, o.cfg.BuildLockTTL); err != nil {
		logger.Warn(ctx, "build lock unavailable, proceeding without cross-instance lock", "error", err.Error())
	} else if !acquired {
		return nil, apperrors.ErrBuildInProgress
	} else {
		lockHeld = true
	}
	if lockHeld {
		defer func() {
			releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer releaseCancel()
			if err := o.cache.ReleaseBuildLock(releaseCtx, session.Fingerprint); err != nil {
				logger.Warn(ctx, "failed to release build lock", "error", err.Error())
			}
		}()
	}

	// Detecting：请求形状检查
	o.enterStage(ctx, session, sink, entity.StageDetecting, "detecting request shape")
	if err := o.detect(&session.Request); err != nil {
		return nil, err
	}

	// Extracting：失败视为输入错误，立即终止
	o.enterStage(ctx, session, sink, entity.StageExtracting, "extracting source text")
	texts, err := o.extract(ctx, session)
	if err != nil {
		return nil, err
	}

	// Transforming：消耗共享重试预算
	o.enterStage(ctx, session, sink, entity.StageTransforming, "transforming content")
	content, err := o.transformWithRetry(ctx, session, texts)
	if err != nil {
		return nil, err
	}

	// Rendering：渲染失败可回退到一次重新转换，同样消耗预算
	o.enterStage(ctx, session, sink, entity.StageRendering, "rendering artifact")
	result, content, err := o.renderWithRetry(ctx, session, texts, content)
	if err != nil {
		return nil, err
	}

	// Validating：校验失败按渲染失败消耗预算
	o.enterStage(ctx, session, sink, entity.StageValidating, "validating artifact")
	result, err = o.validateWithRetry(ctx, session, content, result)
	if err != nil {
		return nil, err
	}

	// 落盘与元数据
	artifact, err := o.persist(ctx, session, kind, content, result, usage)
	if err != nil {
		return nil, err
	}

	// 取消的会话不写缓存
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	entry := entity.NewCacheEntry(artifact)
	overwrite := !session.Request.CachePolicy.Reuse
	if err := o.cache.Store(ctx, entry, o.cfg.CacheTTL, overwrite); err != nil {
		// 缓存写入失败降级为无缓存路径
		logger.Warn(ctx, "cache store failed, serving uncached result", "error", err.Error())
	}

	// 缓存写入先于 complete 事件
	session.Complete()
	sink.Publish(entity.NewCompleteEvent(o.artifactRef(artifact)))
	o.events.ArtifactCreated(context.WithoutCancel(ctx), artifact)
	return entry, nil
}

// enterStage 状态转移：每次转移恰好发布一个 progress 事件
func (o *Orchestrator) enterStage(ctx context.Context, session *entity.GenerationSession, sink EventSink, stage entity.Stage, message string) {
	session.Enter(stage)
	logger.Info(ctx, "generation stage", "stage", string(stage), "percent", session.Progress())
	sink.Publish(entity.NewProgressEvent(stage, session.Progress(), message))
}

func (o *Orchestrator) detect(req *entity.GenerationRequest) error {
	if !req.OutputKind.Valid() {
		return apperrors.New(apperrors.CodeUnsupportedOutput, "unsupported output kind: "+string(req.OutputKind))
	}
	if len(req.Sources) == 0 {
		return apperrors.New(apperrors.CodeUnsupportedSource, "request has no sources")
	}
	for _, s := range req.Sources {
		if !s.Validate() {
			return apperrors.New(apperrors.CodeUnsupportedSource, "invalid source of type "+string(s.Type))
		}
	}
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, session *entity.GenerationSession) ([]wfmodel.SourceText, error) {
	start := time.Now()
	texts, err := o.extractor.Extract(ctx, session.Request.Sources)
	metrics.GenerationStageDuration.WithLabelValues(string(entity.StageExtracting), string(session.Request.OutputKind)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// transformOnce 单次转换调用，含输出解析
func (o *Orchestrator) transformOnce(ctx context.Context, session *entity.GenerationSession, texts []wfmodel.SourceText) (*wfmodel.ContentModel, error) {
	req := &session.Request
	in := &wfmodel.TransformInput{
		Credential: wfmodel.Credential{
			Provider: req.Provider,
			Model:    req.Model,
			APIKey:   apiKeyFromContext(ctx),
		},
		Kind:             string(req.OutputKind),
		Sources:          texts,
		Audience:         req.Preferences.Audience,
		ImageStyle:       req.Preferences.ImageStyle,
		MaxSlides:        o.maxSlides(req),
		MaxSummaryPoints: req.Preferences.MaxSummaryPoints,
	}
	if req.Preferences.Temperature > 0 {
		t := float32(req.Preferences.Temperature)
		in.Temperature = &t
	}
	if req.Preferences.MaxTokens > 0 {
		mt := req.Preferences.MaxTokens
		in.MaxTokens = &mt
	}

	msg, err := o.transformer.Invoke(ctx, in)
	if err != nil {
		return nil, classifyLLMError(err)
	}

	var content wfmodel.ContentModel
	if err := wfnode.DecodeJSON(msg.Content, &content); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransformFailed, "model output is not a valid content model")
	}
	if err := o.checkContentModel(string(req.OutputKind), &content); err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(&content)
	session.ContentModel = raw
	return &content, nil
}

// checkContentModel 转换产物的形状检查，缺失结构按转换失败处理（可重试）
func (o *Orchestrator) checkContentModel(kind string, content *wfmodel.ContentModel) error {
	switch kind {
	case "pdf", "html":
		if len(content.Sections) == 0 {
			return apperrors.New(apperrors.CodeTransformFailed, "content model has no sections")
		}
	case "pptx":
		if len(content.Slides) == 0 {
			return apperrors.New(apperrors.CodeTransformFailed, "content model has no slides")
		}
	case "mindmap":
		if content.Mindmap == nil {
			return apperrors.New(apperrors.CodeTransformFailed, "content model has no mindmap nodes")
		}
	}
	return nil
}

func (o *Orchestrator) maxSlides(req *entity.GenerationRequest) int {
	if req.Preferences.MaxSlides > 0 && req.Preferences.MaxSlides <= o.cfg.MaxSlides {
		return req.Preferences.MaxSlides
	}
	return o.cfg.MaxSlides
}

func (o *Orchestrator) transformWithRetry(ctx context.Context, session *entity.GenerationSession, texts []wfmodel.SourceText) (*wfmodel.ContentModel, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationStageDuration.WithLabelValues(string(entity.StageTransforming), string(session.Request.OutputKind)).
			Observe(time.Since(start).Seconds())
	}()

	for {
		content, err := o.transformOnce(ctx, session, texts)
		if err == nil {
			return content, nil
		}
		// 解析失败与瞬时故障同样消耗预算
		retryable := isRetryable(err) || isTransformParseError(err)
		if !retryable {
			return nil, err
		}
		if !session.ConsumeRetry(o.cfg.MaxRetries) {
			return nil, apperrors.Wrap(err, apperrors.CodeRetryExhausted, "retry budget exhausted during transform")
		}
		session.RecordError(err.Error())
		metrics.GenerationRetriesTotal.WithLabelValues(string(entity.StageTransforming), retryReasonFor(err)).Inc()
		logger.Warn(ctx, "transform attempt failed, retrying",
			"attempt", session.Attempts[entity.StageTransforming],
			"retries_used", session.RetriesUsed,
			"error", err.Error(),
		)
		if werr := backoffWait(ctx, &o.cfg.Backoff, session.RetriesUsed); werr != nil {
			return nil, werr
		}
		session.Attempts[entity.StageTransforming]++
	}
}

func isTransformParseError(err error) bool {
	appErr := extractAppError(err)
	return appErr != nil && appErr.Code == apperrors.CodeTransformFailed
}

func retryReasonFor(err error) string {
	if isTransformParseError(err) {
		return "malformed_output"
	}
	if appErr := extractAppError(err); appErr != nil && appErr.Code == apperrors.CodeValidationFailed {
		return "validation"
	}
	return retryReason(err)
}

// renderWithRetry 渲染；内容性失败允许一次回退重新转换，同样消耗预算
func (o *Orchestrator) renderWithRetry(ctx context.Context, session *entity.GenerationSession, texts []wfmodel.SourceText, content *wfmodel.ContentModel) (*render.Result, *wfmodel.ContentModel, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationStageDuration.WithLabelValues(string(entity.StageRendering), string(session.Request.OutputKind)).
			Observe(time.Since(start).Seconds())
	}()

	kind := string(session.Request.OutputKind)
	fallbackUsed := false

	for {
		result, err := o.renderer.Render(ctx, kind, content)
		if err == nil {
			return result, content, nil
		}

		appErr := extractAppError(err)
		contentFault := appErr != nil && appErr.Code == apperrors.CodeRenderFailed

		if contentFault && !fallbackUsed {
			// 回退路径：重新转换一次再渲染，不回退状态机
			fallbackUsed = true
			if !session.ConsumeRetry(o.cfg.MaxRetries) {
				return nil, nil, apperrors.Wrap(err, apperrors.CodeRetryExhausted, "retry budget exhausted during render")
			}
			session.RecordError(err.Error())
			metrics.GenerationRetriesTotal.WithLabelValues(string(entity.StageRendering), "content_fallback").Inc()
			logger.Warn(ctx, "render rejected content model, re-transforming once", "error", err.Error())

			newContent, terr := o.transformOnce(ctx, session, texts)
			if terr != nil {
				return nil, nil, terr
			}
			content = newContent
			continue
		}

		if !isRetryable(err) {
			return nil, nil, err
		}
		if !session.ConsumeRetry(o.cfg.MaxRetries) {
			return nil, nil, apperrors.Wrap(err, apperrors.CodeRetryExhausted, "retry budget exhausted during render")
		}
		session.RecordError(err.Error())
		metrics.GenerationRetriesTotal.WithLabelValues(string(entity.StageRendering), retryReason(err)).Inc()
		logger.Warn(ctx, "render attempt failed, retrying",
			"retries_used", session.RetriesUsed,
			"error", err.Error(),
		)
		if werr := backoffWait(ctx, &o.cfg.Backoff, session.RetriesUsed); werr != nil {
			return nil, nil, werr
		}
		session.Attempts[entity.StageRendering]++
	}
}

// validateWithRetry 校验；失败按渲染失败消耗预算并重新渲染
func (o *Orchestrator) validateWithRetry(ctx context.Context, session *entity.GenerationSession, content *wfmodel.ContentModel, result *render.Result) (*render.Result, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationStageDuration.WithLabelValues(string(entity.StageValidating), string(session.Request.OutputKind)).
			Observe(time.Since(start).Seconds())
	}()

	kind := string(session.Request.OutputKind)

	for {
		err := o.validator.Validate(kind, result, content)
		if err == nil {
			return result, nil
		}
		if !session.ConsumeRetry(o.cfg.MaxRetries) {
			return nil, apperrors.Wrap(err, apperrors.CodeRetryExhausted, "retry budget exhausted during validation")
		}
		session.RecordError(err.Error())
		metrics.GenerationRetriesTotal.WithLabelValues(string(entity.StageValidating), "validation").Inc()
		logger.Warn(ctx, "artifact failed validation, re-rendering",
			"retries_used", session.RetriesUsed,
			"error", err.Error(),
		)
		if werr := backoffWait(ctx, &o.cfg.Backoff, session.RetriesUsed); werr != nil {
			return nil, werr
		}

		result, err = o.renderer.Render(ctx, kind, content)
		if err != nil {
			if !isRetryable(err) {
				return nil, err
			}
			result = &render.Result{}
			continue
		}
	}
}

// persist 产物落盘并写入元数据库
func (o *Orchestrator) persist(ctx context.Context, session *entity.GenerationSession, kind string, content *wfmodel.ContentModel, result *render.Result, usage *obs.UsageCollector) (*entity.Artifact, error) {
	artifact := entity.NewArtifact(session.Fingerprint, session.Request.OutputKind, "", result.ContentType, int64(len(result.Data)))
	artifact.Title = content.Title
	artifact.Pages = result.Pages
	artifact.Slides = result.Slides
	artifact.Provider = session.Request.Provider
	artifact.Model = session.Request.Model
	artifact.TokensPrompt, artifact.TokensComplete = usage.Totals()
	session.TokensPrompt = artifact.TokensPrompt
	session.TokensComplete = artifact.TokensComplete

	location, err := o.store.Save(ctx, artifact.ID, kind, result.Data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to store artifact")
	}
	artifact.Location = location

	if err := o.artifacts.Create(ctx, artifact); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist artifact metadata")
	}
	return artifact, nil
}

func (o *Orchestrator) artifactRef(artifact *entity.Artifact) *entity.ArtifactRef {
	return &entity.ArtifactRef{
		ArtifactID:  artifact.ID,
		DownloadURL: fmt.Sprintf("/api/v1/artifacts/%s/download", artifact.ID),
		Title:       artifact.Title,
		Pages:       artifact.Pages,
		Slides:      artifact.Slides,
		ExpiresIn:   int(o.storageCfg.DownloadTTL.Seconds()),
	}
}
