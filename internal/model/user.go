package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色（users.role），由统一身份服务维护
const (
	UserRoleStudent = "student"
	UserRoleStaff   = "staff"
	UserRoleAdmin   = "admin"
)

// User 用户表 — 对应 users（只读）
type User struct {
	UserID    string         `gorm:"type:uuid;primaryKey"                        json:"user_id"`
	Name      string         `gorm:"type:varchar(100);not null"                  json:"name"`
	Email     string         `gorm:"type:varchar(255);not null"                  json:"email"`
	Role      string         `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsUniversityStaff 学校工作人员（含管理员）
func (u *User) IsUniversityStaff() bool {
	return u.Role == UserRoleStaff || u.Role == UserRoleAdmin
}
