package handler

import (
	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/service"
	"epu-club/backend/pkg/response"
)

// RequirementHandler 报告要求模块 HTTP 处理器
type RequirementHandler struct {
	reqSvc service.RequirementService
}

// NewRequirementHandler 创建 RequirementHandler
func NewRequirementHandler(reqSvc service.RequirementService) *RequirementHandler {
	return &RequirementHandler{reqSvc: reqSvc}
}

// ListRequirements 获取报告要求列表
// GET /api/v1/requirements
func (h *RequirementHandler) ListRequirements(c *gin.Context) {
	var req dto.RequirementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.reqSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetRequirement 获取报告要求详情
// GET /api/v1/requirements/:id
func (h *RequirementHandler) GetRequirement(c *gin.Context) {
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	resp, err := h.reqSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// CreateRequirement 发布报告要求
// POST /api/v1/requirements
func (h *RequirementHandler) CreateRequirement(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.reqSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateRequirement 修改报告要求
// PUT /api/v1/requirements/:id
func (h *RequirementHandler) UpdateRequirement(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	var req dto.UpdateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.reqSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteRequirement 删除报告要求
// DELETE /api/v1/requirements/:id
func (h *RequirementHandler) DeleteRequirement(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	if err := h.reqSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListClubRequirements 查看各社团进度
// GET /api/v1/requirements/:id/clubs
func (h *RequirementHandler) ListClubRequirements(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	var req dto.ClubRequirementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.reqSvc.ListClubRequirements(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// AddClubs 追加目标社团
// POST /api/v1/requirements/:id/clubs
func (h *RequirementHandler) AddClubs(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	var req dto.AddClubsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.reqSvc.AddClubs(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// RemoveClub 移除目标社团
// DELETE /api/v1/requirements/:id/clubs/:club_id
func (h *RequirementHandler) RemoveClub(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}
	clubID, ok := pathID(c, "club_id", "社团ID")
	if !ok {
		return
	}

	if err := h.reqSvc.RemoveClub(c.Request.Context(), id, clubID, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// AssignTeam 委派小组
// PUT /api/v1/club-requirements/:id/team
func (h *RequirementHandler) AssignTeam(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "社团要求ID")
	if !ok {
		return
	}

	var req dto.AssignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.reqSvc.AssignTeam(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// ListByClub 某社团收到的报告要求
// GET /api/v1/clubs/:id/requirements
func (h *RequirementHandler) ListByClub(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	clubID, ok := pathID(c, "id", "社团ID")
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.reqSvc.ListByClub(c.Request.Context(), clubID, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
