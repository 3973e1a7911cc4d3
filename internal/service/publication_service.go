package service

import (
	"context"

	"go.uber.org/zap"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
)

// PublicationService 已发布内容（公开动态）
type PublicationService interface {
	List(ctx context.Context, req *dto.PublicationListRequest) ([]dto.PublicationResponse, int64, error)
}

type publicationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPublicationService 创建 PublicationService 实例
func NewPublicationService(repo *repository.Repository, logger *zap.Logger) PublicationService {
	return &publicationService{repo: repo, logger: logger}
}

func (s *publicationService) List(ctx context.Context, req *dto.PublicationListRequest) ([]dto.PublicationResponse, int64, error) {
	items, total, err := s.repo.Publication.List(ctx, req.ClubID, req.Kind, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询发布物失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.PublicationResponse, 0, len(items))
	for i := range items {
		result = append(result, toPublicationResponse(&items[i]))
	}
	return result, total, nil
}

func toPublicationResponse(p *model.Publication) dto.PublicationResponse {
	resp := dto.PublicationResponse{
		ID:           p.PublicationID,
		SubmissionID: p.SubmissionID,
		Kind:         string(p.Kind),
		TeamID:       p.TeamID,
		Title:        p.Title,
		Content:      p.Content,
		Category:     p.Category,
		ThumbnailURL: p.ThumbnailURL,
		FileURL:      p.FileURL,
		PublishedBy:  p.PublishedBy,
		PublishedAt:  dto.FormatTime(p.PublishedAt),
	}
	if p.Club != nil {
		resp.Club = &dto.ClubBrief{ID: p.Club.ClubID, Name: p.Club.Name}
	}
	return resp
}
