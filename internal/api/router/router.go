package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"epu-club/backend/config"
	"epu-club/backend/internal/api/handler"
	"epu-club/backend/internal/api/middleware"
	"epu-club/backend/internal/model"
	"epu-club/backend/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时流转接口不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.Limiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staffOnly := middleware.RoleAuth(model.UserRoleStaff, model.UserRoleAdmin)
	transitionLimit := middleware.RateLimit(limiter, cfg.Workflow.RateLimitPerMinute, time.Minute)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开发布列表（无需认证）
		v1.GET("/publications", h.Publication.ListPublications)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			// 报告要求模块（学校工作人员维护，社团成员可查看）
			requirements := authorized.Group("/requirements")
			{
				requirements.GET("", h.Requirement.ListRequirements)
				requirements.GET("/:id", h.Requirement.GetRequirement)
				requirements.POST("", staffOnly, h.Requirement.CreateRequirement)
				requirements.PUT("/:id", staffOnly, h.Requirement.UpdateRequirement)
				requirements.DELETE("/:id", staffOnly, h.Requirement.DeleteRequirement)
				requirements.GET("/:id/clubs", staffOnly, h.Requirement.ListClubRequirements)
				requirements.POST("/:id/clubs", staffOnly, h.Requirement.AddClubs)
				requirements.DELETE("/:id/clubs/:club_id", staffOnly, h.Requirement.RemoveClub)
			}

			// 小组委派（社团干部，Service 层鉴权）
			authorized.PUT("/club-requirements/:id/team", h.Requirement.AssignTeam)
			authorized.GET("/clubs/:id/requirements", h.Requirement.ListByClub)

			// 提交与审批流转
			submissions := authorized.Group("/submissions")
			{
				submissions.POST("", h.Submission.CreateSubmission)
				submissions.GET("", h.Submission.ListSubmissions)
				submissions.GET("/:id", h.Submission.GetSubmission)
				submissions.PUT("/:id", h.Submission.UpdateDraft)
				submissions.DELETE("/:id", h.Submission.DeleteDraft)
				submissions.GET("/:id/history", h.Submission.GetHistory)

				flow := submissions.Group("/:id")
				flow.Use(transitionLimit)
				{
					flow.POST("/submit", h.Submission.Submit)
					flow.POST("/cancel", h.Submission.Cancel)
					flow.POST("/resubmit", h.Submission.Resubmit)
					flow.POST("/club-approve", h.Submission.ClubApprove)
					flow.POST("/club-reject", h.Submission.ClubReject)
					flow.POST("/university-approve", staffOnly, h.Submission.UniversityApprove)
					flow.POST("/university-reject", staffOnly, h.Submission.UniversityReject)
				}
			}

			// 站内信
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/requirements/:id/progress", staffOnly, h.Export.ExportRequirementProgress)
				export.GET("/calendar", h.Export.RequirementCalendar)
			}
		}
	}

	return r
}
