package model

import (
	"time"

	"epu-club/backend/internal/workflow"
)

// Submission 提交 — 对应 submissions，报告与新闻申请共用一张表，kind 区分
type Submission struct {
	SubmissionID        string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	Kind                workflow.Kind   `gorm:"type:varchar(30);not null"                      json:"kind"`
	AuthorID            string          `gorm:"type:uuid;not null"                             json:"author_id"`
	ClubID              string          `gorm:"type:uuid;not null"                             json:"club_id"`
	TeamID              *string         `gorm:"type:uuid"                                      json:"team_id,omitempty"`
	ClubRequirementID   *string         `gorm:"type:uuid"                                      json:"club_requirement_id,omitempty"`
	Title               string          `gorm:"type:varchar(300);not null;default:''"          json:"title"`
	Content             string          `gorm:"type:text;not null;default:''"                  json:"content"`
	FileURL             *string         `gorm:"type:varchar(1000)"                             json:"file_url,omitempty"`
	ThumbnailURL        *string         `gorm:"type:varchar(1000)"                             json:"thumbnail_url,omitempty"`
	Category            *string         `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	Status              workflow.Status `gorm:"type:varchar(30);not null;default:'DRAFT'"      json:"status"`
	SubmittedDate       *time.Time      `json:"submitted_date,omitempty"`
	ReviewedDate        *time.Time      `json:"reviewed_date,omitempty"`
	ReviewerID          *string         `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	ReviewerFeedback    *string         `gorm:"type:text"                                      json:"reviewer_feedback,omitempty"`
	MustResubmit        bool            `gorm:"not null;default:false"                         json:"must_resubmit"`
	PublishedArtifactID *string         `gorm:"type:uuid"                                      json:"published_artifact_id,omitempty"`
	SearchText          string          `gorm:"type:text;not null;default:''"                  json:"-"`
	VersionedModel

	// 关联
	ClubRequirement *ClubRequirement `gorm:"foreignKey:ClubRequirementID;references:ClubRequirementID" json:"club_requirement,omitempty"`
	Club            *Club            `gorm:"foreignKey:ClubID;references:ClubID"                       json:"club,omitempty"`
	Team            *Team            `gorm:"foreignKey:TeamID;references:TeamID"                       json:"team,omitempty"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }

// Subject 状态机所需的字段切片
func (s *Submission) Subject() workflow.Subject {
	return workflow.Subject{
		Kind:         s.Kind,
		Status:       s.Status,
		AuthorID:     s.AuthorID,
		MustResubmit: s.MustResubmit,
	}
}

// Payload 当前正文
func (s *Submission) Payload() workflow.Payload {
	return workflow.Payload{
		Title:        s.Title,
		Content:      s.Content,
		Category:     StrVal(s.Category),
		FileURL:      StrVal(s.FileURL),
		ThumbnailURL: StrVal(s.ThumbnailURL),
	}
}

// SetPayload 写入正文（按类型只保留对应字段）
func (s *Submission) SetPayload(p workflow.Payload) {
	s.Title = p.Title
	s.Content = p.Content
	s.FileURL = StrPtr(p.FileURL)
	if s.Kind == workflow.KindPublicationRequest {
		s.Category = StrPtr(p.Category)
		s.ThumbnailURL = StrPtr(p.ThumbnailURL)
	} else {
		s.Category = nil
		s.ThumbnailURL = nil
	}
}

// SubmissionTransition 流转日志 — 对应 submission_transitions，只追加
type SubmissionTransition struct {
	TransitionID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transition_id"`
	SubmissionID string           `gorm:"type:uuid;not null"                             json:"submission_id"`
	Seq          int              `gorm:"not null"                                       json:"seq"`
	Event        workflow.Event   `gorm:"type:varchar(30);not null"                      json:"event"`
	FromStatus   workflow.Status  `gorm:"type:varchar(30);not null"                      json:"from_status"`
	ToStatus     workflow.Status  `gorm:"type:varchar(30);not null"                      json:"to_status"`
	ViaStatus    *workflow.Status `gorm:"type:varchar(30)"                               json:"via_status,omitempty"`
	ActorID      string           `gorm:"type:uuid;not null"                             json:"actor_id"`
	Feedback     *string          `gorm:"type:text"                                      json:"feedback,omitempty"`
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (SubmissionTransition) TableName() string { return "submission_transitions" }

// Publication 发布物 — 对应 publications，校级通过时在同一事务内生成
type Publication struct {
	PublicationID string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"publication_id"`
	SubmissionID  string        `gorm:"type:uuid;not null;uniqueIndex"                 json:"submission_id"`
	Kind          workflow.Kind `gorm:"type:varchar(30);not null"                      json:"kind"`
	ClubID        string        `gorm:"type:uuid;not null"                             json:"club_id"`
	TeamID        *string       `gorm:"type:uuid"                                      json:"team_id,omitempty"`
	Title         string        `gorm:"type:varchar(300);not null"                     json:"title"`
	Content       string        `gorm:"type:text;not null;default:''"                  json:"content"`
	Category      *string       `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	ThumbnailURL  *string       `gorm:"type:varchar(1000)"                             json:"thumbnail_url,omitempty"`
	FileURL       *string       `gorm:"type:varchar(1000)"                             json:"file_url,omitempty"`
	PublishedBy   string        `gorm:"type:uuid;not null"                             json:"published_by"`
	PublishedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"published_at"`

	Club *Club `gorm:"foreignKey:ClubID;references:ClubID" json:"club,omitempty"`
}

// TableName 指定表名
func (Publication) TableName() string { return "publications" }
