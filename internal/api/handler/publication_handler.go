package handler

import (
	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/service"
	"epu-club/backend/pkg/response"
)

// PublicationHandler 已发布内容 HTTP 处理器
type PublicationHandler struct {
	pubSvc service.PublicationService
}

// NewPublicationHandler 创建 PublicationHandler
func NewPublicationHandler(pubSvc service.PublicationService) *PublicationHandler {
	return &PublicationHandler{pubSvc: pubSvc}
}

// ListPublications 公开发布列表（无需登录）
// GET /api/v1/publications
func (h *PublicationHandler) ListPublications(c *gin.Context) {
	var req dto.PublicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.pubSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
