package dto

// PublicationListRequest 发布物列表查询
type PublicationListRequest struct {
	ClubID string `form:"club_id" binding:"omitempty,uuid"`
	Kind   string `form:"kind"    binding:"omitempty,oneof=REPORT PUBLICATION_REQUEST"`
	PaginationRequest
}

// PublicationResponse 发布物
type PublicationResponse struct {
	ID           string     `json:"id"`
	SubmissionID string     `json:"submission_id"`
	Kind         string     `json:"kind"`
	Club         *ClubBrief `json:"club,omitempty"`
	TeamID       *string    `json:"team_id,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     *string    `json:"category,omitempty"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	FileURL      *string    `json:"file_url,omitempty"`
	PublishedBy  string     `json:"published_by"`
	PublishedAt  string     `json:"published_at"`
}
