package handler

import "epu-club/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Requirement  *RequirementHandler
	Submission   *SubmissionHandler
	Notification *NotificationHandler
	Publication  *PublicationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Requirement:  NewRequirementHandler(svc.Requirement),
		Submission:   NewSubmissionHandler(svc.Submission),
		Notification: NewNotificationHandler(svc.Notification),
		Publication:  NewPublicationHandler(svc.Publication),
		Export:       NewExportHandler(svc.Export),
	}
}
