package repository

import (
	"context"

	"gorm.io/gorm"

	"epu-club/backend/internal/model"
)

// TransitionRepository 流转日志数据访问接口（只追加）
type TransitionRepository interface {
	// Append 以 MAX(seq)+1 追加，须在持有提交行锁的事务内调用
	Append(ctx context.Context, t *model.SubmissionTransition) error
	ListBySubmission(ctx context.Context, submissionID string) ([]model.SubmissionTransition, error)
}

type transitionRepo struct {
	db *gorm.DB
}

// NewTransitionRepo 创建 TransitionRepository 实例
func NewTransitionRepo(db *gorm.DB) TransitionRepository {
	return &transitionRepo{db: db}
}

func (r *transitionRepo) Append(ctx context.Context, t *model.SubmissionTransition) error {
	var last int
	err := r.db.WithContext(ctx).
		Model(&model.SubmissionTransition{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("submission_id = ?", t.SubmissionID).
		Scan(&last).Error
	if err != nil {
		return err
	}
	t.Seq = last + 1
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transitionRepo) ListBySubmission(ctx context.Context, submissionID string) ([]model.SubmissionTransition, error) {
	var items []model.SubmissionTransition
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("seq ASC").
		Find(&items).Error
	return items, err
}
