package model

import (
	"time"

	"gorm.io/gorm"
)

// 社团成员角色（club_members.role）
const (
	MemberRolePresident = "president"
	MemberRoleOfficer   = "officer"
	MemberRoleTreasurer = "treasurer"
	MemberRoleTeamLead  = "team_lead"
	MemberRoleMember    = "member"
)

// ClubOfficerRoles 具备社团级审核权限的角色
var ClubOfficerRoles = []string{MemberRolePresident, MemberRoleOfficer, MemberRoleTreasurer}

// Club 社团表 — 对应 clubs（只读）
type Club struct {
	ClubID    string         `gorm:"type:uuid;primaryKey"        json:"club_id"`
	Name      string         `gorm:"type:varchar(200);not null"  json:"name"`
	Code      string         `gorm:"type:varchar(50);not null"   json:"code"`
	IsActive  bool           `gorm:"not null;default:true"       json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Club) TableName() string { return "clubs" }

// Team 社团内小组 — 对应 teams
type Team struct {
	TeamID    string         `gorm:"type:uuid;primaryKey"       json:"team_id"`
	ClubID    string         `gorm:"type:uuid;not null"         json:"club_id"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// ClubMember 社团成员关系 — 对应 club_members
type ClubMember struct {
	MembershipID string         `gorm:"type:uuid;primaryKey"      json:"membership_id"`
	ClubID       string         `gorm:"type:uuid;not null"        json:"club_id"`
	TeamID       *string        `gorm:"type:uuid"                 json:"team_id,omitempty"`
	UserID       string         `gorm:"type:uuid;not null"        json:"user_id"`
	Role         string         `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool           `gorm:"not null;default:true"     json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (ClubMember) TableName() string { return "club_members" }

// IsOfficer 是否为社团干部
func (m *ClubMember) IsOfficer() bool {
	for _, r := range ClubOfficerRoles {
		if m.Role == r {
			return true
		}
	}
	return false
}
