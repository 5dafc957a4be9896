package service

import (
	"fmt"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/internal/websocket"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
)

// NotificationService 알림 서비스 인터페이스
type NotificationService interface {
	GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (*model.Notification, error)
	MarkAllAsRead(userID uint) error

	NotifyVerificationResult(request *model.VerificationRequest) error
	NotifyLevelChanged(userID uint, oldLevel, newLevel model.VerificationLevel) error
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  *websocket.Hub
}

// NewNotificationService 알림 서비스 생성자
func NewNotificationService(repo repository.NotificationRepository, hub *websocket.Hub) NotificationService {
	return &notificationService{
		repo: repo,
		hub:  hub,
	}
}

// GetNotifications 알림 목록 조회
func (s *notificationService) GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error) {
	// 페이지 기본값
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize

	notifications, total, err := s.repo.GetNotifications(userID, isRead, pageSize, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unreadCount, err := s.repo.GetUnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unreadCount, nil
}

// GetUnreadCount 안읽은 알림 개수 조회
func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.GetUnreadCount(userID)
}

// MarkAsRead 알림 읽음 처리 (본인 알림만)
func (s *notificationService) MarkAsRead(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.repo.GetNotificationByID(notificationID)
	if err != nil {
		return nil, err
	}

	if notification.UserID != userID {
		return nil, fmt.Errorf("notification %d does not belong to user %d", notificationID, userID)
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}

	notification.IsRead = true
	return notification, nil
}

// MarkAllAsRead 전체 알림 읽음 처리
func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}

// NotifyVerificationResult 인증 요청 결과 알림 생성 및 푸시
func (s *notificationService) NotifyVerificationResult(request *model.VerificationRequest) error {
	var notifType model.NotificationType
	var title, content string

	methodName := methodDisplayName(request.Type)

	switch request.Status {
	case model.RequestStatusApproved:
		notifType = model.NotificationTypeVerificationApproved
		title = fmt.Sprintf("%s 인증이 승인되었습니다", methodName)
		content = fmt.Sprintf("%s 인증이 완료되었습니다. 프로필에서 확인해보세요.", methodName)
	case model.RequestStatusRejected:
		notifType = model.NotificationTypeVerificationRejected
		title = fmt.Sprintf("%s 인증이 반려되었습니다", methodName)
		content = fmt.Sprintf("%s 인증이 반려되었습니다. 사유: %s", methodName, request.RejectionReason)
	case model.RequestStatusExpired:
		notifType = model.NotificationTypeVerificationExpired
		title = fmt.Sprintf("%s 인증이 만료되었습니다", methodName)
		content = fmt.Sprintf("%s 인증 유효기간이 지났습니다. 다시 인증해주세요.", methodName)
	default:
		return fmt.Errorf("no notification for request status %s", request.Status)
	}

	requestID := request.ID
	notification := &model.Notification{
		UserID:           request.UserID,
		Type:             notifType,
		Title:            title,
		Content:          content,
		RelatedRequestID: &requestID,
	}

	if err := s.repo.CreateNotification(notification); err != nil {
		logger.Error("Failed to create verification result notification", err, map[string]interface{}{
			"user_id":    request.UserID,
			"request_id": request.ID,
		})
		return err
	}

	s.pushToUser(notification)
	return nil
}

// NotifyLevelChanged 신뢰 등급 변경 알림 생성 및 푸시
func (s *notificationService) NotifyLevelChanged(userID uint, oldLevel, newLevel model.VerificationLevel) error {
	var title, content string
	if newLevel.Rank() > oldLevel.Rank() {
		title = "신뢰 등급이 올랐습니다"
		content = fmt.Sprintf("회원님의 신뢰 등급이 %s(으)로 상승했습니다.", levelDisplayName(newLevel))
	} else {
		title = "신뢰 등급이 변경되었습니다"
		content = fmt.Sprintf("회원님의 신뢰 등급이 %s(으)로 변경되었습니다.", levelDisplayName(newLevel))
	}

	notification := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationTypeLevelChanged,
		Title:   title,
		Content: content,
	}

	if err := s.repo.CreateNotification(notification); err != nil {
		logger.Error("Failed to create level change notification", err, map[string]interface{}{
			"user_id":   userID,
			"new_level": newLevel,
		})
		return err
	}

	s.pushToUser(notification)
	return nil
}

// pushToUser websocket 연결이 있으면 실시간 푸시
func (s *notificationService) pushToUser(notification *model.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.SendToUser(notification.UserID, websocket.Message{
		Type:    "notification",
		Payload: notification,
	})
}

func methodDisplayName(t model.VerificationType) string {
	switch t {
	case model.VerificationTypeEmail:
		return "이메일"
	case model.VerificationTypePhone:
		return "휴대폰"
	case model.VerificationTypeIdentity:
		return "신분증"
	case model.VerificationTypeAddress:
		return "주소"
	case model.VerificationTypePayment:
		return "결제수단"
	case model.VerificationTypeBackgroundCheck:
		return "백그라운드 체크"
	}
	return string(t)
}

func levelDisplayName(l model.VerificationLevel) string {
	switch l {
	case model.VerificationLevelBasic:
		return "베이직"
	case model.VerificationLevelStandard:
		return "스탠다드"
	case model.VerificationLevelPremium:
		return "프리미엄"
	}
	return "미인증"
}
