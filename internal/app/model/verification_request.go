package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// VerificationType 인증 수단 타입
type VerificationType string

const (
	VerificationTypeIdentity        VerificationType = "identity"         // 신분증 인증
	VerificationTypePhone           VerificationType = "phone"            // 휴대폰 인증
	VerificationTypeEmail           VerificationType = "email"            // 이메일 인증
	VerificationTypeAddress         VerificationType = "address"          // 주소 인증
	VerificationTypePayment         VerificationType = "payment"          // 결제수단 인증
	VerificationTypeBackgroundCheck VerificationType = "background_check" // 백그라운드 체크
)

// AllVerificationTypes 점수 계산/요구사항 테이블에서 쓰는 고정 순서
var AllVerificationTypes = []VerificationType{
	VerificationTypeEmail,
	VerificationTypePhone,
	VerificationTypeIdentity,
	VerificationTypePayment,
	VerificationTypeAddress,
	VerificationTypeBackgroundCheck,
}

// RequestStatus 인증 요청 상태
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"     // 검토 대기
	RequestStatusInProgress RequestStatus = "in_progress" // 처리 중 (백그라운드 체크)
	RequestStatusApproved   RequestStatus = "approved"    // 승인됨
	RequestStatusRejected   RequestStatus = "rejected"    // 반려됨
	RequestStatusExpired    RequestStatus = "expired"     // 만료됨 (백그라운드 체크 전용)
)

// IsTerminal 더 이상 전이할 수 없는 상태인지
// 승인된 백그라운드 체크는 만료 경로가 남아 있으므로 approved는 제외
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected || s == RequestStatusExpired
}

// CheckType 백그라운드 체크 등급
type CheckType string

const (
	CheckTypeBasic         CheckType = "basic"
	CheckTypeStandard      CheckType = "standard"
	CheckTypeComprehensive CheckType = "comprehensive"
)

// RiskLevel 백그라운드 체크 위험도
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// OverallStatus 백그라운드 체크 종합 결과
type OverallStatus string

const (
	OverallStatusPass           OverallStatus = "pass"
	OverallStatusFail           OverallStatus = "fail"
	OverallStatusReviewRequired OverallStatus = "review_required"
	OverallStatusPending        OverallStatus = "pending"
)

// 세부 체크 결과 상태값 (제공업체 응답 스키마)
const (
	CheckResultClear        = "clear"        // 이상 없음
	CheckResultFound        = "found"        // 등재 확인 (성범죄자/감시 대상)
	CheckResultRecordsFound = "records_found" // 범죄 기록 확인
	CheckResultVerified     = "verified"     // 신원 일치
	CheckResultFailed       = "failed"       // 신원 불일치
	CheckResultPending      = "pending"      // 결과 대기
)

// CheckResult 세부 체크 한 건의 결과
type CheckResult struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// CheckResults 백그라운드 체크 세부 결과 묶음
type CheckResults struct {
	CriminalHistory      CheckResult  `json:"criminal_history"`
	SexOffenderRegistry  CheckResult  `json:"sex_offender_registry"`
	GlobalWatchlist      CheckResult  `json:"global_watchlist"`
	IdentityVerification CheckResult  `json:"identity_verification"`
	MotorVehicleRecords  *CheckResult `json:"motor_vehicle_records,omitempty"` // comprehensive 등급만
}

// IdentityPayload 신분증 인증 정보
type IdentityPayload struct {
	DocumentType string `json:"document_type"` // passport, driver_license, national_id
	DocumentURL  string `json:"document_url"`  // 업로드된 신분증 이미지 URL
	FullName     string `json:"full_name"`
	BirthDate    string `json:"birth_date,omitempty"` // YYYYMMDD
}

// PhonePayload 휴대폰 인증 정보
type PhonePayload struct {
	PhoneNumber string `json:"phone_number"` // 숫자만, 예: 01012345678
}

// EmailPayload 이메일 인증 정보
type EmailPayload struct {
	EmailAddress string `json:"email_address"`
}

// AddressPayload 주소 인증 정보
type AddressPayload struct {
	Address1         string `json:"address1"`
	Address2         string `json:"address2,omitempty"`
	City             string `json:"city"`
	PostalCode       string `json:"postal_code"`
	ProofDocumentURL string `json:"proof_document_url"` // 공과금 고지서 등 증빙 이미지 URL
}

// PaymentPayload 결제수단 인증 정보
type PaymentPayload struct {
	MethodKind  string `json:"method_kind"` // card, bank_account
	Last4       string `json:"last4"`
	BillingName string `json:"billing_name"`
}

// BackgroundCheckPayload 백그라운드 체크 인증 정보
type BackgroundCheckPayload struct {
	CheckType        CheckType     `json:"check_type"`
	Provider         string        `json:"provider"`
	ExternalID       string        `json:"external_id,omitempty"` // 제공업체 상관관계 토큰
	ConsentGiven     bool          `json:"consent_given"`
	ConsentTimestamp *time.Time    `json:"consent_timestamp,omitempty"`
	Results          *CheckResults `json:"results,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	ExpiresAt        *time.Time    `json:"expires_at,omitempty"` // completed_at + 365일
	RiskLevel        RiskLevel     `json:"risk_level,omitempty"`
	OverallStatus    OverallStatus `json:"overall_status"`
}

// RequestPayload 인증 수단별 상세 정보
// 요청 타입과 일치하는 변형 하나만 채워져야 함 (서비스 레이어에서 검증)
type RequestPayload struct {
	Identity        *IdentityPayload        `json:"identity,omitempty"`
	Phone           *PhonePayload           `json:"phone,omitempty"`
	Email           *EmailPayload           `json:"email,omitempty"`
	Address         *AddressPayload         `json:"address,omitempty"`
	Payment         *PaymentPayload         `json:"payment,omitempty"`
	BackgroundCheck *BackgroundCheckPayload `json:"background_check,omitempty"`
}

// Value GORM jsonb 직렬화
func (p RequestPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan GORM jsonb 역직렬화
func (p *RequestPayload) Scan(value interface{}) error {
	if value == nil {
		*p = RequestPayload{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported payload column type %T", value)
	}
}

// MatchesType 채워진 변형이 요청 타입과 일치하는지
func (p *RequestPayload) MatchesType(t VerificationType) bool {
	variants := map[VerificationType]bool{
		VerificationTypeIdentity:        p.Identity != nil,
		VerificationTypePhone:           p.Phone != nil,
		VerificationTypeEmail:           p.Email != nil,
		VerificationTypeAddress:         p.Address != nil,
		VerificationTypePayment:         p.Payment != nil,
		VerificationTypeBackgroundCheck: p.BackgroundCheck != nil,
	}
	if !variants[t] {
		return false
	}
	// 다른 변형이 섞여 있으면 안 됨
	count := 0
	for _, present := range variants {
		if present {
			count++
		}
	}
	return count == 1
}

// VerificationRequest 인증 요청 모델
type VerificationRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint             `gorm:"not null;index" json:"user_id"`
	Type   VerificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Status RequestStatus    `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	Payload RequestPayload `gorm:"type:jsonb" json:"payload"`

	// ExternalID 제공업체 상관관계 토큰 (백그라운드 체크 전용, webhook/poll 조회 키)
	ExternalID string `gorm:"type:varchar(64);index" json:"external_id,omitempty"`

	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      *uint      `json:"reviewed_by,omitempty"` // 검토한 관리자 ID (자동 처리는 nil)
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}

// ValidVerificationType 지원하는 인증 수단인지
func ValidVerificationType(t VerificationType) bool {
	switch t {
	case VerificationTypeIdentity, VerificationTypePhone, VerificationTypeEmail,
		VerificationTypeAddress, VerificationTypePayment, VerificationTypeBackgroundCheck:
		return true
	}
	return false
}

// AllowedTransitions 상태 전이 테이블
// 백그라운드 체크는 생성 시점부터 in_progress로 시작한다.
// approved → expired는 백그라운드 체크 전용 (서비스 레이어에서 타입 검사)
var AllowedTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusApproved, RequestStatusRejected},
	RequestStatusInProgress: {RequestStatusApproved, RequestStatusRejected, RequestStatusInProgress},
	RequestStatusApproved:   {RequestStatusExpired},
	RequestStatusRejected:   {},
	RequestStatusExpired:    {},
}

// CanTransition 전이 테이블 기준 허용 여부
func CanTransition(from, to RequestStatus) bool {
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionSources 해당 상태로 전이할 수 있는 시작 상태 목록
// CAS 갱신의 WHERE status IN 절을 전이 테이블에서 파생할 때 사용한다
func TransitionSources(to RequestStatus) []RequestStatus {
	ordered := []RequestStatus{
		RequestStatusPending,
		RequestStatusInProgress,
		RequestStatusApproved,
		RequestStatusRejected,
		RequestStatusExpired,
	}
	var sources []RequestStatus
	for _, from := range ordered {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}
