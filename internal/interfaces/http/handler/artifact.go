package handler

import (
	"github.com/gin-gonic/gin"

	appgen "prism-docs-api/internal/application/generation"
	"prism-docs-api/internal/infrastructure/storage"
	"prism-docs-api/internal/interfaces/http/dto"
	"prism-docs-api/pkg/logger"
)

// ArtifactHandler 产物接口处理器
type ArtifactHandler struct {
	svc   *appgen.Service
	store *storage.Store
}

// NewArtifactHandler 创建产物接口处理器
func NewArtifactHandler(svc *appgen.Service, store *storage.Store) *ArtifactHandler {
	return &ArtifactHandler{svc: svc, store: store}
}

// List 分页列出产物
// @Summary 列出产物
// @Tags Artifacts
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ArtifactListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/artifacts [get]
func (h *ArtifactHandler) List(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.svc.ListArtifacts(c.Request.Context(), page.Pagination())
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	out := make([]*dto.ArtifactResponse, 0, len(result.Items))
	for _, a := range result.Items {
		out = append(out, dto.NewArtifactResponse(a))
	}
	dto.SuccessWithPage(c, &dto.ArtifactListResponse{Artifacts: out},
		dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// Get 查询产物元数据
// @Summary 查询产物元数据
// @Tags Artifacts
// @Produce json
// @Param aid path string true "产物 ID"
// @Success 200 {object} dto.Response[dto.ArtifactResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/artifacts/{aid} [get]
func (h *ArtifactHandler) Get(c *gin.Context) {
	artifact, err := h.svc.GetArtifact(c.Request.Context(), c.Param("aid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.Success(c, dto.NewArtifactResponse(artifact))
}

// Download 下载产物文件
// @Summary 下载产物文件
// @Tags Artifacts
// @Produce octet-stream
// @Param aid path string true "产物 ID"
// @Success 200 "artifact bytes"
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/artifacts/{aid}/download [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	artifact, err := h.svc.GetArtifact(ctx, c.Param("aid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	reader, size, err := h.store.Open(ctx, artifact.Location)
	if err != nil {
		logger.Error(ctx, "failed to open artifact file", err, "artifact_id", artifact.ID)
		dto.FromAppError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+artifact.ID+artifactExtension(artifact.ContentType)+`"`)
	c.DataFromReader(200, size, artifact.ContentType, reader, nil)
}

// Delete 删除产物及其文件
// @Summary 删除产物
// @Tags Artifacts
// @Produce json
// @Param aid path string true "产物 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/artifacts/{aid} [delete]
func (h *ArtifactHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteArtifact(c.Request.Context(), c.Param("aid")); err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.NoContent(c)
}

func artifactExtension(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return ".pptx"
	case "text/html; charset=utf-8", "text/html":
		return ".html"
	case "application/json":
		return ".json"
	default:
		return ""
	}
}
