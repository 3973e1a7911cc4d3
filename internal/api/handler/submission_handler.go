package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/service"
	"epu-club/backend/pkg/response"
)

// SubmissionHandler 提交与审批流转 HTTP 处理器
type SubmissionHandler struct {
	subSvc service.SubmissionService
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(subSvc service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{subSvc: subSvc}
}

// bindOptionalJSON 请求体为空时跳过绑定（流转接口的 expected_version 可省略）
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}

// CreateSubmission 创建草稿
// POST /api/v1/submissions
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.subSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, resp)
}

// ListSubmissions 按可见范围列出提交
// GET /api/v1/submissions
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.subSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSubmission 获取提交详情（含当前可执行操作）
// GET /api/v1/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	resp, err := h.subSvc.GetByID(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// GetHistory 获取流转记录
// GET /api/v1/submissions/:id/history
func (h *SubmissionHandler) GetHistory(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	list, err := h.subSvc.History(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UpdateDraft 修改草稿或被驳回的提交正文
// PUT /api/v1/submissions/:id
func (h *SubmissionHandler) UpdateDraft(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.subSvc.UpdateDraft(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteDraft 删除草稿
// DELETE /api/v1/submissions/:id
func (h *SubmissionHandler) DeleteDraft(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	if err := h.subSvc.DeleteDraft(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 流转 ──

type plainTransition func(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error)

func (h *SubmissionHandler) runPlain(c *gin.Context, fn plainTransition) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := fn(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

type rejectTransition func(ctx context.Context, id string, req *dto.RejectRequest, callerID string) (*dto.SubmissionResponse, error)

func (h *SubmissionHandler) runReject(c *gin.Context, fn rejectTransition) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	// 审核意见由服务层校验，空意见返回业务错误而非参数错误
	var req dto.RejectRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := fn(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}

// Submit 提交审核
// POST /api/v1/submissions/:id/submit
func (h *SubmissionHandler) Submit(c *gin.Context) { h.runPlain(c, h.subSvc.Submit) }

// Cancel 撤回
// POST /api/v1/submissions/:id/cancel
func (h *SubmissionHandler) Cancel(c *gin.Context) { h.runPlain(c, h.subSvc.Cancel) }

// ClubApprove 社团审核通过
// POST /api/v1/submissions/:id/club-approve
func (h *SubmissionHandler) ClubApprove(c *gin.Context) { h.runPlain(c, h.subSvc.ClubApprove) }

// ClubReject 社团驳回
// POST /api/v1/submissions/:id/club-reject
func (h *SubmissionHandler) ClubReject(c *gin.Context) { h.runReject(c, h.subSvc.ClubReject) }

// UniversityApprove 学校审核通过并发布
// POST /api/v1/submissions/:id/university-approve
func (h *SubmissionHandler) UniversityApprove(c *gin.Context) {
	h.runPlain(c, h.subSvc.UniversityApprove)
}

// UniversityReject 学校驳回
// POST /api/v1/submissions/:id/university-reject
func (h *SubmissionHandler) UniversityReject(c *gin.Context) {
	h.runReject(c, h.subSvc.UniversityReject)
}

// Resubmit 修改后重交
// POST /api/v1/submissions/:id/resubmit
func (h *SubmissionHandler) Resubmit(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.ResubmitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.subSvc.Resubmit(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, resp)
}
