package controller

import (
	"net/http"
	"strconv"

	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	apperrors "github.com/daeyeo/daeyeo-backend/internal/errors"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	ws "github.com/daeyeo/daeyeo-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// 허용된 도메인 목록
		allowedOrigins := map[string]bool{
			"https://daeyeo.kr":     true,
			"http://localhost:5173": true, // 개발 환경
			"http://localhost:3000": true, // 개발 환경
		}
		return allowedOrigins[origin]
	},
}

// NotificationController 알림 컨트롤러
type NotificationController struct {
	service service.NotificationService
	hub     *ws.Hub
}

// NewNotificationController 알림 컨트롤러 생성자
func NewNotificationController(service service.NotificationService, hub *ws.Hub) *NotificationController {
	return &NotificationController{
		service: service,
		hub:     hub,
	}
}

// GetNotifications godoc
// @Summary 알림 목록 조회
// @Description 사용자의 알림 목록을 조회합니다
// @Tags notifications
// @Produce json
// @Param page query int false "페이지 번호" default(1)
// @Param page_size query int false "페이지 크기" default(20)
// @Param is_read query bool false "읽음 상태"
// @Success 200 {object} gin.H{data=[]model.Notification,total=int,unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	var isRead *bool
	if isReadStr := ctx.Query("is_read"); isReadStr != "" {
		if isReadStr == "true" {
			t := true
			isRead = &t
		} else if isReadStr == "false" {
			f := false
			isRead = &f
		}
	}

	notifications, total, unreadCount, err := c.service.GetNotifications(userID, isRead, page, pageSize)
	if err != nil {
		apperrors.InternalError(ctx, "알림 목록을 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":         notifications,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"unread_count": unreadCount,
	})
}

// GetUnreadCount godoc
// @Summary 안읽은 알림 개수 조회
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	count, err := c.service.GetUnreadCount(userID)
	if err != nil {
		apperrors.InternalError(ctx, "안읽은 알림 개수를 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{data=model.Notification}
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	notificationID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 알림 ID입니다")
		return
	}

	notification, err := c.service.MarkAsRead(uint(notificationID), userID)
	if err != nil {
		apperrors.NotFound(ctx, apperrors.NotificationNotFound, "알림을 찾을 수 없습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": notification,
	})
}

// MarkAllAsRead godoc
// @Summary 전체 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{success=bool}
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [patch]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	if err := c.service.MarkAllAsRead(userID); err != nil {
		apperrors.InternalError(ctx, "알림 읽음 처리에 실패했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// WebSocketHandler WebSocket 연결 처리
// GET /api/v1/notifications/ws
// 쿼리 파라미터로 토큰을 받지만, 로깅하지 않음 (보안)
func (c *NotificationController) WebSocketHandler(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	// 미들웨어에서 이미 인증 완료
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "")
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := &ws.Client{
		Hub:    c.hub,
		Conn:   &ws.Conn{Conn: conn},
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	c.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})
}
