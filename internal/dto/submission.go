package dto

import "epu-club/backend/internal/workflow"

// ── 提交模块 DTO ──

// ReportFields 报告正文
type ReportFields struct {
	ReportTitle string `json:"report_title" binding:"max=300"`
	Content     string `json:"content"      binding:"max=100000"`
	FileURL     string `json:"file_url"     binding:"omitempty,url,max=1000"`
}

// PublicationFields 新闻申请正文
type PublicationFields struct {
	Title        string `json:"title"         binding:"max=300"`
	Content      string `json:"content"       binding:"max=100000"`
	ThumbnailURL string `json:"thumbnail_url" binding:"omitempty,url,max=1000"`
	Category     string `json:"category"      binding:"max=50"`
}

// SubmissionFields 按 kind 二选一的正文
type SubmissionFields struct {
	Report      *ReportFields      `json:"report,omitempty"`
	Publication *PublicationFields `json:"publication,omitempty"`
}

// Payload 转换为状态机正文；类型不匹配时返回 false
func (f SubmissionFields) Payload(kind workflow.Kind) (workflow.Payload, bool) {
	switch kind {
	case workflow.KindReport:
		if f.Report == nil || f.Publication != nil {
			return workflow.Payload{}, false
		}
		return workflow.Payload{Title: f.Report.ReportTitle, Content: f.Report.Content, FileURL: f.Report.FileURL}, true
	case workflow.KindPublicationRequest:
		if f.Publication == nil || f.Report != nil {
			return workflow.Payload{}, false
		}
		return workflow.Payload{
			Title:        f.Publication.Title,
			Content:      f.Publication.Content,
			Category:     f.Publication.Category,
			ThumbnailURL: f.Publication.ThumbnailURL,
		}, true
	}
	return workflow.Payload{}, false
}

// Empty 未携带任何正文
func (f SubmissionFields) Empty() bool {
	return f.Report == nil && f.Publication == nil
}

// CreateSubmissionRequest 创建草稿
type CreateSubmissionRequest struct {
	Kind              string  `json:"kind"                binding:"required,oneof=REPORT PUBLICATION_REQUEST"`
	ClubID            *string `json:"club_id"             binding:"omitempty,uuid"`
	TeamID            *string `json:"team_id"             binding:"omitempty,uuid"`
	ClubRequirementID *string `json:"club_requirement_id" binding:"omitempty,uuid"`
	SubmissionFields
}

// UpdateDraftRequest 修改草稿正文
type UpdateDraftRequest struct {
	ExpectedVersion *int `json:"expected_version" binding:"omitempty,min=1"`
	SubmissionFields
}

// TransitionRequest 无参数流转（submit / cancel / approve）
type TransitionRequest struct {
	ExpectedVersion *int `json:"expected_version" binding:"omitempty,min=1"`
}

// RejectRequest 驳回
type RejectRequest struct {
	Feedback        string `json:"feedback"         binding:"max=5000"`
	MustResubmit    bool   `json:"must_resubmit"`
	ExpectedVersion *int   `json:"expected_version" binding:"omitempty,min=1"`
}

// ResubmitRequest 修改后重交；正文为空时沿用当前正文
type ResubmitRequest struct {
	ExpectedVersion *int `json:"expected_version" binding:"omitempty,min=1"`
	SubmissionFields
}

// SubmissionListRequest 提交列表查询
type SubmissionListRequest struct {
	ClubID        string `form:"club_id"        binding:"omitempty,uuid"`
	TeamID        string `form:"team_id"        binding:"omitempty,uuid"`
	RequirementID string `form:"requirement_id" binding:"omitempty,uuid"`
	AuthorID      string `form:"author_id"      binding:"omitempty,uuid"`
	Status        string `form:"status"         binding:"omitempty,max=30"`
	Kind          string `form:"kind"           binding:"omitempty,oneof=REPORT PUBLICATION_REQUEST"`
	Keyword       string `form:"keyword"        binding:"omitempty,max=100"`
	PaginationRequest
}

// ── 响应 ──

// SubmissionResponse 提交详情
type SubmissionResponse struct {
	ID                  string             `json:"id"`
	Kind                string             `json:"kind"`
	AuthorID            string             `json:"author_id"`
	Club                *ClubBrief         `json:"club,omitempty"`
	ClubID              string             `json:"club_id"`
	TeamID              *string            `json:"team_id,omitempty"`
	ClubRequirementID   *string            `json:"club_requirement_id,omitempty"`
	Report              *ReportFields      `json:"report,omitempty"`
	Publication         *PublicationFields `json:"publication,omitempty"`
	Status              string             `json:"status"`
	SubmittedDate       *string            `json:"submitted_date,omitempty"`
	ReviewedDate        *string            `json:"reviewed_date,omitempty"`
	ReviewerID          *string            `json:"reviewer_id,omitempty"`
	ReviewerFeedback    *string            `json:"reviewer_feedback,omitempty"`
	MustResubmit        bool               `json:"must_resubmit"`
	PublishedArtifactID *string            `json:"published_artifact_id,omitempty"`
	Actions             workflow.Actions   `json:"actions"`
	Version             int                `json:"version"`
	CreatedAt           string             `json:"created_at"`
	UpdatedAt           string             `json:"updated_at"`
}

// TransitionResponse 流转日志
type TransitionResponse struct {
	Seq        int     `json:"seq"`
	Event      string  `json:"event"`
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	ViaStatus  *string `json:"via_status,omitempty"`
	ActorID    string  `json:"actor_id"`
	Feedback   *string `json:"feedback,omitempty"`
	CreatedAt  string  `json:"created_at"`
}
