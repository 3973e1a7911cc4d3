package dto

import "time"

// ── 报告要求模块 DTO ──

// CreateRequirementRequest 发布报告要求
type CreateRequirementRequest struct {
	Title       string    `json:"title"        binding:"required,min=1,max=300"`
	Description string    `json:"description"  binding:"max=10000"`
	DueDate     time.Time `json:"due_date"     binding:"required"`
	Kind        string    `json:"kind"         binding:"required,oneof=SEMESTER EVENT OTHER"`
	TemplateURL *string   `json:"template_url" binding:"omitempty,url,max=1000"`
	ClubIDs     []string  `json:"club_ids"     binding:"required,min=1,dive,uuid"`
}

// UpdateRequirementRequest 修改报告要求（字段均可选）
type UpdateRequirementRequest struct {
	Title           *string    `json:"title"            binding:"omitempty,min=1,max=300"`
	Description     *string    `json:"description"      binding:"omitempty,max=10000"`
	DueDate         *time.Time `json:"due_date"`
	Kind            *string    `json:"kind"             binding:"omitempty,oneof=SEMESTER EVENT OTHER"`
	TemplateURL     *string    `json:"template_url"     binding:"omitempty,max=1000"`
	ExpectedVersion *int       `json:"expected_version" binding:"omitempty,min=1"`
}

// AddClubsRequest 追加目标社团
type AddClubsRequest struct {
	ClubIDs []string `json:"club_ids" binding:"required,min=1,dive,uuid"`
}

// AssignTeamRequest 委派小组
type AssignTeamRequest struct {
	TeamID string `json:"team_id" binding:"required,uuid"`
}

// RequirementListRequest 报告要求列表查询
type RequirementListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	Kind    string `form:"kind"    binding:"omitempty,oneof=SEMESTER EVENT OTHER"`
	PaginationRequest
}

// ClubRequirementListRequest 社团要求列表查询
type ClubRequirementListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
	PaginationRequest
}

// ── 响应 ──

// RequirementResponse 报告要求响应
type RequirementResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"due_date"`
	Kind        string  `json:"kind"`
	TemplateURL *string `json:"template_url,omitempty"`
	ClubCount   int     `json:"club_count"`
	CreatedBy   *string `json:"created_by,omitempty"`
	Version     int     `json:"version"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ClubRequirementResponse 社团要求（含进度）
type ClubRequirementResponse struct {
	ID                     string               `json:"id"`
	RequirementID          string               `json:"requirement_id"`
	Requirement            *RequirementResponse `json:"requirement,omitempty"`
	Club                   ClubBrief            `json:"club"`
	AssignedTeam           *TeamBrief           `json:"assigned_team,omitempty"`
	Note                   *string              `json:"note,omitempty"`
	LatestSubmissionID     *string              `json:"latest_submission_id,omitempty"`
	LatestSubmissionStatus *string              `json:"latest_submission_status,omitempty"`
	Overdue                bool                 `json:"overdue"`
	UpdatedAt              string               `json:"updated_at"`
}
