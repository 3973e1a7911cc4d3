package repository

import (
	"context"

	"gorm.io/gorm"

	"epu-club/backend/internal/model"
)

// DirectoryRepository 用户 / 社团 / 小组 / 成员关系的只读访问接口
// 数据由统一身份服务维护，本服务仅用于权限解析与通知收件人查询
type DirectoryRepository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetClub(ctx context.Context, id string) (*model.Club, error)
	ListClubsByIDs(ctx context.Context, ids []string) ([]model.Club, error)
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	// ListMemberships 用户在某社团内的有效成员关系（可能分属多个小组）
	ListMemberships(ctx context.Context, userID, clubID string) ([]model.ClubMember, error)
	ListOfficerIDs(ctx context.Context, clubID string) ([]string, error)
	ListStaffIDs(ctx context.Context) ([]string, error)
}

type directoryRepo struct {
	db *gorm.DB
}

// NewDirectoryRepo 创建 DirectoryRepository 实例
func NewDirectoryRepo(db *gorm.DB) DirectoryRepository {
	return &directoryRepo{db: db}
}

func (r *directoryRepo) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *directoryRepo) GetClub(ctx context.Context, id string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Where("club_id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *directoryRepo) ListClubsByIDs(ctx context.Context, ids []string) ([]model.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var clubs []model.Club
	err := r.db.WithContext(ctx).
		Where("club_id IN ?", ids).
		Find(&clubs).Error
	return clubs, err
}

func (r *directoryRepo) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Where("team_id = ?", id).
		First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *directoryRepo) ListMemberships(ctx context.Context, userID, clubID string) ([]model.ClubMember, error) {
	var members []model.ClubMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND club_id = ? AND is_active = ?", userID, clubID, true).
		Find(&members).Error
	return members, err
}

func (r *directoryRepo) ListOfficerIDs(ctx context.Context, clubID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.ClubMember{}).
		Distinct("user_id").
		Where("club_id = ? AND is_active = ? AND role IN ?", clubID, true, model.ClubOfficerRoles).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *directoryRepo) ListStaffIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role IN ?", []string{model.UserRoleStaff, model.UserRoleAdmin}).
		Pluck("user_id", &ids).Error
	return ids, err
}
