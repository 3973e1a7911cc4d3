package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"epu-club/backend/internal/model"
	pkgerrors "epu-club/backend/pkg/errors"
)

// RequirementFilter 报告要求列表过滤条件
type RequirementFilter struct {
	Keyword string // 已去音调的 LIKE 模式
	Kind    string
}

// RequirementRepository 报告要求数据访问接口
type RequirementRepository interface {
	Create(ctx context.Context, req *model.Requirement) error
	GetByID(ctx context.Context, id string) (*model.Requirement, error)
	Update(ctx context.Context, req *model.Requirement) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter RequirementFilter, offset, limit int) ([]model.Requirement, int64, error)
	// ListByClub 指向某社团的全部要求；clubID 为空时返回全部
	ListByClub(ctx context.Context, clubID string) ([]model.Requirement, error)
}

// ClubRequirementRepository 社团要求数据访问接口
type ClubRequirementRepository interface {
	BatchCreate(ctx context.Context, items []model.ClubRequirement) error
	GetByID(ctx context.Context, id string) (*model.ClubRequirement, error)
	// LockByID SELECT ... FOR UPDATE，须在事务内调用
	LockByID(ctx context.Context, id string) (*model.ClubRequirement, error)
	GetByRequirementAndClub(ctx context.Context, requirementID, clubID string) (*model.ClubRequirement, error)
	ListClubIDs(ctx context.Context, requirementID string) ([]string, error)
	CountByRequirements(ctx context.Context, requirementIDs []string) (map[string]int64, error)
	ListByRequirement(ctx context.Context, requirementID, keyword string, offset, limit int) ([]model.ClubRequirement, int64, error)
	ListByClub(ctx context.Context, clubID string, offset, limit int) ([]model.ClubRequirement, int64, error)
	Update(ctx context.Context, item *model.ClubRequirement) error
	Delete(ctx context.Context, id, deletedBy string) error
}

// ── Requirement Repository 实现 ──

type requirementRepo struct {
	db *gorm.DB
}

// NewRequirementRepo 创建 RequirementRepository 实例
func NewRequirementRepo(db *gorm.DB) RequirementRepository {
	return &requirementRepo{db: db}
}

func (r *requirementRepo) Create(ctx context.Context, req *model.Requirement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *requirementRepo) GetByID(ctx context.Context, id string) (*model.Requirement, error) {
	var req model.Requirement
	err := r.db.WithContext(ctx).
		Where("requirement_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requirementRepo) Update(ctx context.Context, req *model.Requirement) error {
	oldVersion := req.Version
	now := time.Now()
	// 用空模型承载更新，避免 gorm 在行数为 0 时回写 req
	result := r.db.WithContext(ctx).
		Model(&model.Requirement{}).
		Where("requirement_id = ? AND version = ?", req.RequirementID, oldVersion).
		Updates(map[string]interface{}{
			"title":        req.Title,
			"description":  req.Description,
			"due_date":     req.DueDate,
			"kind":         req.Kind,
			"template_url": req.TemplateURL,
			"search_text":  req.SearchText,
			"updated_by":   req.UpdatedBy,
			"updated_at":   now,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	req.UpdatedAt = now
	return nil
}

func (r *requirementRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Requirement{}).
			Where("requirement_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		if err := tx.Where("requirement_id = ?", id).Delete(&model.ClubRequirement{}).Error; err != nil {
			return err
		}
		return tx.Where("requirement_id = ?", id).Delete(&model.Requirement{}).Error
	})
}

func (r *requirementRepo) List(ctx context.Context, filter RequirementFilter, offset, limit int) ([]model.Requirement, int64, error) {
	var items []model.Requirement
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Requirement{})
	if filter.Kind != "" {
		db = db.Where("kind = ?", filter.Kind)
	}
	if filter.Keyword != "" {
		db = db.Where("search_text LIKE ?", filter.Keyword)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPage(db.Order("due_date DESC"), offset, limit).Find(&items).Error
	return items, total, err
}

func (r *requirementRepo) ListByClub(ctx context.Context, clubID string) ([]model.Requirement, error) {
	var items []model.Requirement
	db := r.db.WithContext(ctx).Model(&model.Requirement{})
	if clubID != "" {
		db = db.Where("requirement_id IN (?)",
			r.db.Model(&model.ClubRequirement{}).Select("requirement_id").Where("club_id = ?", clubID))
	}
	err := db.Order("due_date ASC").Find(&items).Error
	return items, err
}

// ── ClubRequirement Repository 实现 ──

type clubRequirementRepo struct {
	db *gorm.DB
}

// NewClubRequirementRepo 创建 ClubRequirementRepository 实例
func NewClubRequirementRepo(db *gorm.DB) ClubRequirementRepository {
	return &clubRequirementRepo{db: db}
}

func (r *clubRequirementRepo) BatchCreate(ctx context.Context, items []model.ClubRequirement) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *clubRequirementRepo) GetByID(ctx context.Context, id string) (*model.ClubRequirement, error) {
	var item model.ClubRequirement
	err := r.db.WithContext(ctx).
		Preload("Requirement").
		Preload("Club").
		Preload("AssignedTeam").
		Where("club_requirement_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *clubRequirementRepo) LockByID(ctx context.Context, id string) (*model.ClubRequirement, error) {
	var item model.ClubRequirement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("club_requirement_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *clubRequirementRepo) GetByRequirementAndClub(ctx context.Context, requirementID, clubID string) (*model.ClubRequirement, error) {
	var item model.ClubRequirement
	err := r.db.WithContext(ctx).
		Where("requirement_id = ? AND club_id = ?", requirementID, clubID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *clubRequirementRepo) ListClubIDs(ctx context.Context, requirementID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.ClubRequirement{}).
		Where("requirement_id = ?", requirementID).
		Pluck("club_id", &ids).Error
	return ids, err
}

func (r *clubRequirementRepo) CountByRequirements(ctx context.Context, requirementIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(requirementIDs))
	if len(requirementIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		RequirementID string
		Count         int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ClubRequirement{}).
		Select("requirement_id, COUNT(*) AS count").
		Where("requirement_id IN ?", requirementIDs).
		Group("requirement_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.RequirementID] = row.Count
	}
	return result, nil
}

func (r *clubRequirementRepo) ListByRequirement(ctx context.Context, requirementID, keyword string, offset, limit int) ([]model.ClubRequirement, int64, error) {
	var items []model.ClubRequirement
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.ClubRequirement{}).
		Where("requirement_id = ?", requirementID)
	if keyword != "" {
		db = db.Where("search_text LIKE ?", keyword)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPage(db.Preload("Club").Preload("AssignedTeam").Order("search_text ASC"), offset, limit).
		Find(&items).Error
	return items, total, err
}

func (r *clubRequirementRepo) ListByClub(ctx context.Context, clubID string, offset, limit int) ([]model.ClubRequirement, int64, error) {
	var items []model.ClubRequirement
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.ClubRequirement{}).
		Joins("JOIN requirements ON requirements.requirement_id = club_requirements.requirement_id AND requirements.deleted_at IS NULL").
		Where("club_requirements.club_id = ?", clubID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPage(db.Preload("Requirement").Preload("Club").Preload("AssignedTeam").
		Order("requirements.due_date ASC"), offset, limit).
		Find(&items).Error
	return items, total, err
}

func (r *clubRequirementRepo) Update(ctx context.Context, item *model.ClubRequirement) error {
	oldVersion := item.Version
	now := time.Now()
	// 用空模型承载更新，避免 gorm 在行数为 0 时回写 item
	result := r.db.WithContext(ctx).
		Model(&model.ClubRequirement{}).
		Where("club_requirement_id = ? AND version = ?", item.ClubRequirementID, oldVersion).
		Updates(map[string]interface{}{
			"assigned_team_id": item.AssignedTeamID,
			"note":             item.Note,
			"search_text":      item.SearchText,
			"updated_by":       item.UpdatedBy,
			"updated_at":       now,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	item.Version = oldVersion + 1
	item.UpdatedAt = now
	return nil
}

func (r *clubRequirementRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ClubRequirement{}).
			Where("club_requirement_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("club_requirement_id = ?", id).Delete(&model.ClubRequirement{}).Error
	})
}
