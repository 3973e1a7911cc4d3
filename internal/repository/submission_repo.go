package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"epu-club/backend/internal/model"
	"epu-club/backend/internal/workflow"
	pkgerrors "epu-club/backend/pkg/errors"
)

// SubmissionScope 可见范围，零值表示不限制
type SubmissionScope struct {
	// ViewerID 非空时启用范围限制
	ViewerID string
	// AllButDrafts 学校工作人员：除他人草稿外全部可见
	AllButDrafts bool
	// ClubWide 社团干部：过滤社团内全部可见
	ClubWide bool
	// TeamIDs 所在小组的提交可见
	TeamIDs []string
}

// SubmissionFilter 提交列表过滤条件
type SubmissionFilter struct {
	ClubID        string
	TeamID        string
	RequirementID string
	AuthorID      string
	Status        string
	Kind          string
	Keyword       string // 已去音调的 LIKE 模式
	Scope         SubmissionScope
}

// SubmissionRepository 提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	// Update 乐观锁更新：仅当 (id, status, version) 均未变化时写入
	Update(ctx context.Context, sub *model.Submission, expectedStatus workflow.Status) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter SubmissionFilter, offset, limit int) ([]model.Submission, int64, error)

	// CountOpenByClubRequirement 计入「一条未完结提交」约束的数量
	CountOpenByClubRequirement(ctx context.Context, clubRequirementID string) (int64, error)
	CountByClubRequirement(ctx context.Context, clubRequirementID string) (int64, error)
	CountByRequirement(ctx context.Context, requirementID string) (int64, error)
	HasNonDraftByClubRequirement(ctx context.Context, clubRequirementID string) (bool, error)
	HasNonDraftByRequirement(ctx context.Context, requirementID string) (bool, error)
	HasPublicationDraft(ctx context.Context, authorID, clubID string, teamID *string) (bool, error)
	// ReassignDrafts 将社团要求下的草稿改挂到 teamID，返回受影响行数
	ReassignDrafts(ctx context.Context, clubRequirementID string, teamID *string) (int64, error)
	// LatestByClubRequirements 每个社团要求最近一次创建的提交
	LatestByClubRequirements(ctx context.Context, clubRequirementIDs []string) (map[string]model.Submission, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Preload("Club").
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) Update(ctx context.Context, sub *model.Submission, expectedStatus workflow.Status) error {
	oldVersion := sub.Version
	now := time.Now()
	// 用空模型承载更新，避免 gorm 在行数为 0 时回写 sub
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submission_id = ? AND status = ? AND version = ?", sub.SubmissionID, expectedStatus, oldVersion).
		Updates(map[string]interface{}{
			"team_id":               sub.TeamID,
			"title":                 sub.Title,
			"content":               sub.Content,
			"file_url":              sub.FileURL,
			"thumbnail_url":         sub.ThumbnailURL,
			"category":              sub.Category,
			"status":                sub.Status,
			"submitted_date":        sub.SubmittedDate,
			"reviewed_date":         sub.ReviewedDate,
			"reviewer_id":           sub.ReviewerID,
			"reviewer_feedback":     sub.ReviewerFeedback,
			"must_resubmit":         sub.MustResubmit,
			"published_artifact_id": sub.PublishedArtifactID,
			"search_text":           sub.SearchText,
			"updated_by":            sub.UpdatedBy,
			"updated_at":            now,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	sub.Version = oldVersion + 1
	sub.UpdatedAt = now
	return nil
}

func (r *submissionRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Submission{}).
			Where("submission_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("submission_id = ?", id).Delete(&model.Submission{}).Error
	})
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter, offset, limit int) ([]model.Submission, int64, error) {
	var items []model.Submission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Submission{})
	if filter.ClubID != "" {
		db = db.Where("club_id = ?", filter.ClubID)
	}
	if filter.TeamID != "" {
		db = db.Where("team_id = ?", filter.TeamID)
	}
	if filter.AuthorID != "" {
		db = db.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		db = db.Where("kind = ?", filter.Kind)
	}
	if filter.RequirementID != "" {
		db = db.Where("club_requirement_id IN (?)",
			r.db.Model(&model.ClubRequirement{}).Select("club_requirement_id").Where("requirement_id = ?", filter.RequirementID))
	}
	if filter.Keyword != "" {
		db = db.Where("search_text LIKE ?", filter.Keyword)
	}
	db = applyScope(db, filter.Scope)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPage(db.Preload("Club").Order("updated_at DESC"), offset, limit).Find(&items).Error
	return items, total, err
}

// applyScope 追加可见范围条件
func applyScope(db *gorm.DB, scope SubmissionScope) *gorm.DB {
	if scope.ViewerID == "" {
		return db
	}
	switch {
	case scope.AllButDrafts:
		return db.Where("(status <> ? OR author_id = ?)", workflow.StatusDraft, scope.ViewerID)
	case scope.ClubWide:
		return db
	case len(scope.TeamIDs) > 0:
		return db.Where("(author_id = ? OR team_id IN ?)", scope.ViewerID, scope.TeamIDs)
	default:
		return db.Where("author_id = ?", scope.ViewerID)
	}
}

// openCondition 与 uq_submissions_open_per_club_requirement 的谓词保持一致
func openCondition(db *gorm.DB) *gorm.DB {
	return db.
		Where("status NOT IN ?", workflow.ClosedStatuses()).
		Where("NOT (status = ? AND must_resubmit = ?)", workflow.StatusRejectedUniversity, false)
}

func (r *submissionRepo) CountOpenByClubRequirement(ctx context.Context, clubRequirementID string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("club_requirement_id = ?", clubRequirementID)
	err := openCondition(db).Count(&count).Error
	return count, err
}

func (r *submissionRepo) CountByClubRequirement(ctx context.Context, clubRequirementID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("club_requirement_id = ?", clubRequirementID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepo) CountByRequirement(ctx context.Context, requirementID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Joins("JOIN club_requirements cr ON cr.club_requirement_id = submissions.club_requirement_id").
		Where("cr.requirement_id = ?", requirementID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepo) HasNonDraftByClubRequirement(ctx context.Context, clubRequirementID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("club_requirement_id = ? AND status <> ?", clubRequirementID, workflow.StatusDraft).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepo) HasNonDraftByRequirement(ctx context.Context, requirementID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Joins("JOIN club_requirements cr ON cr.club_requirement_id = submissions.club_requirement_id").
		Where("cr.requirement_id = ? AND submissions.status <> ?", requirementID, workflow.StatusDraft).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepo) ReassignDrafts(ctx context.Context, clubRequirementID string, teamID *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("club_requirement_id = ? AND status = ?", clubRequirementID, workflow.StatusDraft).
		Updates(map[string]interface{}{
			"team_id":    teamID,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *submissionRepo) HasPublicationDraft(ctx context.Context, authorID, clubID string, teamID *string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("kind = ? AND status = ? AND author_id = ? AND club_id = ?",
			workflow.KindPublicationRequest, workflow.StatusDraft, authorID, clubID)
	if teamID != nil {
		db = db.Where("team_id = ?", *teamID)
	} else {
		db = db.Where("team_id IS NULL")
	}
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *submissionRepo) LatestByClubRequirements(ctx context.Context, clubRequirementIDs []string) (map[string]model.Submission, error) {
	result := make(map[string]model.Submission, len(clubRequirementIDs))
	if len(clubRequirementIDs) == 0 {
		return result, nil
	}
	var items []model.Submission
	err := r.db.WithContext(ctx).
		Select("DISTINCT ON (club_requirement_id) *").
		Where("club_requirement_id IN ?", clubRequirementIDs).
		Order("club_requirement_id, created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ClubRequirementID != nil {
			result[*item.ClubRequirementID] = item
		}
	}
	return result, nil
}
