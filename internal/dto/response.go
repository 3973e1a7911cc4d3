package dto

import "time"

// TimeLayout 响应中的时间格式
const TimeLayout = time.RFC3339

// FormatTime 格式化时间
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// FormatTimePtr 格式化可空时间
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(TimeLayout)
	return &s
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 通用简要信息 ──

// ClubBrief 社团简要信息
type ClubBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamBrief 小组简要信息
type TeamBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
