package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Directory       DirectoryRepository
	Requirement     RequirementRepository
	ClubRequirement ClubRequirementRepository
	Submission      SubmissionRepository
	Transition      TransitionRepository
	Publication     PublicationRepository
	Notification    NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Directory:       NewDirectoryRepo(db),
		Requirement:     NewRequirementRepo(db),
		ClubRequirement: NewClubRequirementRepo(db),
		Submission:      NewSubmissionRepo(db),
		Transition:      NewTransitionRepo(db),
		Publication:     NewPublicationRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// Transaction 在同一数据库事务中执行 fn，fn 收到绑定该事务的 Repository。
// 未绑定数据库（单元测试中直接组装的聚合）时直接以自身调用 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// applyPage 分页；limit <= 0 表示不分页
func applyPage(db *gorm.DB, offset, limit int) *gorm.DB {
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	return db
}
