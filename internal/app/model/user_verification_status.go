package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VerificationLevel 사용자 신뢰 등급
type VerificationLevel string

const (
	VerificationLevelNone     VerificationLevel = "none"
	VerificationLevelBasic    VerificationLevel = "basic"
	VerificationLevelStandard VerificationLevel = "standard"
	VerificationLevelPremium  VerificationLevel = "premium"
)

// Rank 등급 비교용 서수 (none < basic < standard < premium)
func (l VerificationLevel) Rank() int {
	switch l {
	case VerificationLevelBasic:
		return 1
	case VerificationLevelStandard:
		return 2
	case VerificationLevelPremium:
		return 3
	default:
		return 0
	}
}

// BadgeType 뱃지 종류 (8종)
type BadgeType string

const (
	BadgeEmailVerified     BadgeType = "email_verified"
	BadgePhoneVerified     BadgeType = "phone_verified"
	BadgeIdentityVerified  BadgeType = "identity_verified"
	BadgePaymentVerified   BadgeType = "payment_verified"
	BadgeAddressVerified   BadgeType = "address_verified"
	BadgeBackgroundChecked BadgeType = "background_checked"
	BadgePremiumVerified   BadgeType = "premium_verified"
	BadgeTrustedRenter     BadgeType = "trusted_renter"
)

// VerificationBadge 사용자에게 노출되는 뱃지
type VerificationBadge struct {
	Type        BadgeType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
	Icon        string    `json:"icon"`
}

// BadgeList jsonb로 저장되는 뱃지 목록
type BadgeList []VerificationBadge

func (b BadgeList) Value() (driver.Value, error) {
	if b == nil {
		b = BadgeList{}
	}
	return json.Marshal(b)
}

func (b *BadgeList) Scan(value interface{}) error {
	if value == nil {
		*b = BadgeList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported badges column type %T", value)
	}
}

// VerifiedMethods 수단별 인증 여부 (6개 플래그)
type VerifiedMethods struct {
	Email           bool `gorm:"column:email_verified" json:"email"`
	Phone           bool `gorm:"column:phone_verified" json:"phone"`
	Identity        bool `gorm:"column:identity_verified" json:"identity"`
	Payment         bool `gorm:"column:payment_verified" json:"payment"`
	Address         bool `gorm:"column:address_verified" json:"address"`
	BackgroundCheck bool `gorm:"column:background_check_verified" json:"background_check"`
}

// IsVerified 해당 수단 플래그 조회
func (m VerifiedMethods) IsVerified(t VerificationType) bool {
	switch t {
	case VerificationTypeEmail:
		return m.Email
	case VerificationTypePhone:
		return m.Phone
	case VerificationTypeIdentity:
		return m.Identity
	case VerificationTypePayment:
		return m.Payment
	case VerificationTypeAddress:
		return m.Address
	case VerificationTypeBackgroundCheck:
		return m.BackgroundCheck
	}
	return false
}

// Set 해당 수단 플래그 설정
func (m *VerifiedMethods) Set(t VerificationType, verified bool) {
	switch t {
	case VerificationTypeEmail:
		m.Email = verified
	case VerificationTypePhone:
		m.Phone = verified
	case VerificationTypeIdentity:
		m.Identity = verified
	case VerificationTypePayment:
		m.Payment = verified
	case VerificationTypeAddress:
		m.Address = verified
	case VerificationTypeBackgroundCheck:
		m.BackgroundCheck = verified
	}
}

// UserVerificationStatus 사용자별 인증 종합 상태 (userId당 1행, 재계산 시 전체 덮어쓰기)
type UserVerificationStatus struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	UserID            uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	IsVerified        bool              `gorm:"default:false;not null" json:"is_verified"`
	VerificationLevel VerificationLevel `gorm:"type:varchar(20);default:'none'" json:"verification_level"`

	Methods VerifiedMethods `gorm:"embedded" json:"verified_methods"`

	// 백그라운드 체크 스냅샷
	BackgroundCheckOverall   OverallStatus `gorm:"type:varchar(20)" json:"background_check_status,omitempty"`
	BackgroundCheckRisk      RiskLevel     `gorm:"type:varchar(10)" json:"background_check_risk,omitempty"`
	BackgroundCheckExpiresAt *time.Time    `json:"background_check_expires_at,omitempty"`

	VerificationScore int       `gorm:"default:0" json:"verification_score"`
	Badges            BadgeList `gorm:"type:jsonb" json:"badges"`
	LastUpdated       time.Time `json:"last_updated"`
}

func (UserVerificationStatus) TableName() string {
	return "user_verifications"
}

// ZeroStatus 아직 인증 이력이 없는 사용자의 기본 상태
func ZeroStatus(userID uint) *UserVerificationStatus {
	return &UserVerificationStatus{
		UserID:            userID,
		IsVerified:        false,
		VerificationLevel: VerificationLevelNone,
		VerificationScore: 0,
		Badges:            BadgeList{},
	}
}
