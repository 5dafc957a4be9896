package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NotificationType 알림 종류
type NotificationType string

const (
	NotificationTypeVerificationApproved NotificationType = "verification_approved" // 인증 승인
	NotificationTypeVerificationRejected NotificationType = "verification_rejected" // 인증 반려
	NotificationTypeVerificationExpired  NotificationType = "verification_expired"  // 인증 만료
	NotificationTypeLevelChanged         NotificationType = "level_changed"         // 신뢰 등급 변경
)

// Notification 알림 모델
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID  uint             `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Content string           `gorm:"type:text" json:"content"`
	IsRead  bool             `gorm:"default:false;index" json:"is_read"`

	// 관련 인증 요청 (있는 경우)
	RelatedRequestID *uint `json:"related_request_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationSettings 사용자별 알림 설정
type NotificationSettings struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	VerificationNotification bool           `gorm:"default:true" json:"verification_notification"` // 인증 결과 알림
	LevelChangeNotification  bool           `gorm:"default:true" json:"level_change_notification"` // 등급 변경 알림
	Channels                 pq.StringArray `gorm:"type:text[]" json:"channels"`                   // websocket, email
}

func (NotificationSettings) TableName() string {
	return "notification_settings"
}
