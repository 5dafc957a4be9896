package router

import (
	"github.com/daeyeo/daeyeo-backend/config"
	"github.com/daeyeo/daeyeo-backend/internal/app/controller"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	verificationController *controller.VerificationController
	adminController        *controller.AdminVerificationController
	notificationController *controller.NotificationController
	webhookController      *controller.WebhookController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	verificationController *controller.VerificationController,
	adminController *controller.AdminVerificationController,
	notificationController *controller.NotificationController,
	webhookController *controller.WebhookController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		verificationController: verificationController,
		adminController:        adminController,
		notificationController: notificationController,
		webhookController:      webhookController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "DAEYEO Verification API is running",
		})
	})

	// 제공업체 웹훅 (HMAC 서명으로 인증, JWT 없음)
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/background-checks", r.webhookController.HandleBackgroundCheckResult)
	}

	v1 := router.Group("/api/v1")
	{
		verifications := v1.Group("/verifications")
		{
			verifications.GET("/requirements", r.verificationController.GetRequirements)

			verifications.POST("", r.authMiddleware.Authenticate(), r.verificationController.Submit)
			verifications.GET("", r.authMiddleware.Authenticate(), r.verificationController.GetMyRequests)
			verifications.GET("/status", r.authMiddleware.Authenticate(), r.verificationController.GetMyStatus)
			verifications.POST("/upload-url", r.authMiddleware.Authenticate(), r.verificationController.GetDocumentUploadURL)
			verifications.GET("/:id", r.authMiddleware.Authenticate(), r.verificationController.GetRequest)
			verifications.POST("/:id/confirm", r.authMiddleware.Authenticate(), r.verificationController.ConfirmCode)
		}

		// 거래 상대방 신뢰 정보 조회 (공개)
		v1.GET("/users/:user_id/verification-status", r.verificationController.GetUserStatus)

		notifications := v1.Group("/notifications")
		notifications.Use(r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.GetNotifications)
			notifications.GET("/unread-count", r.notificationController.GetUnreadCount)
			notifications.GET("/ws", r.notificationController.WebSocketHandler)
			notifications.PATCH("/:id/read", r.notificationController.MarkAsRead)
			notifications.PATCH("/read-all", r.notificationController.MarkAllAsRead)
		}

		admin := v1.Group("/admin/verifications")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("", r.adminController.ListRequests)
			admin.GET("/export", r.adminController.Export)
			admin.POST("/:id/approve", r.adminController.Approve)
			admin.POST("/:id/reject", r.adminController.Reject)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
