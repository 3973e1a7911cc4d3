package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRequirementProgress 导出某报告要求的社团进度表
// GET /api/v1/export/requirements/:id/progress
func (h *ExportHandler) ExportRequirementProgress(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "报告要求ID")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRequirementProgress(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeXLSX)
}

// RequirementCalendar 导出截止日期日历
// GET /api/v1/export/calendar?club_id=xxx
func (h *ExportHandler) RequirementCalendar(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.RequirementCalendar(c.Request.Context(), c.Query("club_id"), callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sendFile(c, buf, filename, contentTypeICS)
}

// sendFile 设置下载响应头
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
