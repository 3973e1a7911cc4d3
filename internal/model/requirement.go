package model

import "time"

// 报告要求类型
const (
	RequirementKindSemester = "SEMESTER"
	RequirementKindEvent    = "EVENT"
	RequirementKindOther    = "OTHER"
)

// ValidRequirementKind 是否为已知的要求类型
func ValidRequirementKind(k string) bool {
	return k == RequirementKindSemester || k == RequirementKindEvent || k == RequirementKindOther
}

// Requirement 报告要求 — 对应 requirements，由学校工作人员发布
type Requirement struct {
	RequirementID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"requirement_id"`
	Title         string    `gorm:"type:varchar(300);not null"                     json:"title"`
	Description   string    `gorm:"type:text;not null;default:''"                  json:"description"`
	DueDate       time.Time `gorm:"not null"                                       json:"due_date"`
	Kind          string    `gorm:"type:varchar(20);not null"                      json:"kind"`
	TemplateURL   *string   `gorm:"type:varchar(1000)"                             json:"template_url,omitempty"`
	SearchText    string    `gorm:"type:text;not null;default:''"                  json:"-"`
	VersionedModel

	ClubRequirements []ClubRequirement `gorm:"foreignKey:RequirementID;references:RequirementID" json:"club_requirements,omitempty"`
}

// TableName 指定表名
func (Requirement) TableName() string { return "requirements" }

// IsOverdue 截止时间已过
func (r *Requirement) IsOverdue(now time.Time) bool {
	return !now.Before(r.DueDate)
}

// ClubRequirement 社团要求 — 对应 club_requirements，每个 (要求, 社团) 一行
type ClubRequirement struct {
	ClubRequirementID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"club_requirement_id"`
	RequirementID     string  `gorm:"type:uuid;not null"                             json:"requirement_id"`
	ClubID            string  `gorm:"type:uuid;not null"                             json:"club_id"`
	AssignedTeamID    *string `gorm:"type:uuid"                                      json:"assigned_team_id,omitempty"`
	Note              *string `gorm:"type:varchar(1000)"                             json:"note,omitempty"`
	SearchText        string  `gorm:"type:text;not null;default:''"                  json:"-"`
	VersionedModel

	// 关联
	Requirement  *Requirement `gorm:"foreignKey:RequirementID;references:RequirementID" json:"requirement,omitempty"`
	Club         *Club        `gorm:"foreignKey:ClubID;references:ClubID"               json:"club,omitempty"`
	AssignedTeam *Team        `gorm:"foreignKey:AssignedTeamID;references:TeamID"       json:"assigned_team,omitempty"`
}

// TableName 指定表名
func (ClubRequirement) TableName() string { return "club_requirements" }
