package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"epu-club/backend/internal/model"
)

// PublicationRepository 发布物数据访问接口
type PublicationRepository interface {
	Create(ctx context.Context, p *model.Publication) error
	List(ctx context.Context, clubID, kind string, offset, limit int) ([]model.Publication, int64, error)
}

type publicationRepo struct {
	db *gorm.DB
}

// NewPublicationRepo 创建 PublicationRepository 实例
func NewPublicationRepo(db *gorm.DB) PublicationRepository {
	return &publicationRepo{db: db}
}

func (r *publicationRepo) Create(ctx context.Context, p *model.Publication) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *publicationRepo) List(ctx context.Context, clubID, kind string, offset, limit int) ([]model.Publication, int64, error) {
	var items []model.Publication
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Publication{})
	if clubID != "" {
		db = db.Where("club_id = ?", clubID)
	}
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := applyPage(db.Preload("Club").Order("published_at DESC"), offset, limit).Find(&items).Error
	return items, total, err
}
