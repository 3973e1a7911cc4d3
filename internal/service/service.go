package service

import (
	"go.uber.org/zap"

	"epu-club/backend/config"
	"epu-club/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Requirement  RequirementService
	Submission   SubmissionService
	Notification NotificationService
	Publication  PublicationService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	resolver CapabilityResolver,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		Requirement:  NewRequirementService(repo, resolver, logger),
		Submission:   NewSubmissionService(repo, resolver, dispatcher, logger),
		Notification: NewNotificationService(repo, logger),
		Publication:  NewPublicationService(repo, logger),
		Export:       NewExportService(cfg, repo, resolver, logger),
	}
}
