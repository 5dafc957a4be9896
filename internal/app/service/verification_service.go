package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/daeyeo/daeyeo-backend/pkg/redis"
	"github.com/daeyeo/daeyeo-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrVerificationNotFound    = errors.New("verification request not found")
	ErrInvalidVerificationType = errors.New("unsupported verification type")
	ErrInvalidPayload          = errors.New("payload does not match verification type")
	ErrConsentRequired         = errors.New("background check requires consent")
	ErrInvalidTransition       = errors.New("verification request is not in a confirmable state")
	ErrNotRequestOwner         = errors.New("verification request belongs to another user")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrTooManyCodeAttempts     = errors.New("too many verification code attempts")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// CodeStore 인증 코드 저장소 (redis)
type CodeStore interface {
	Store(ctx context.Context, kind string, userID uint, code string, ttl time.Duration) error
	Check(ctx context.Context, kind string, userID uint, code string, maxAttempts int) error
}

// ChallengeSender 인증 코드 발송 채널 (SMS/이메일)
type ChallengeSender interface {
	SendSMSCode(phoneNumber, code string) error
	SendEmailCode(emailAddress, code string) error
}

// BackgroundCheckSubmitter 백그라운드 체크 제공업체 접수 진입점
type BackgroundCheckSubmitter interface {
	SubmitToProvider(request *model.VerificationRequest)
}

// RedisCodeStore pkg/redis 기반 기본 구현
type RedisCodeStore struct{}

func (RedisCodeStore) Store(ctx context.Context, kind string, userID uint, code string, ttl time.Duration) error {
	return redis.StoreVerificationCode(ctx, kind, userID, code, ttl)
}

func (RedisCodeStore) Check(ctx context.Context, kind string, userID uint, code string, maxAttempts int) error {
	return redis.CheckVerificationCode(ctx, kind, userID, code, maxAttempts)
}

// UtilChallengeSender pkg/util 기반 기본 구현
type UtilChallengeSender struct{}

func (UtilChallengeSender) SendSMSCode(phoneNumber, code string) error {
	return util.SendVerificationSMS(phoneNumber, code)
}

func (UtilChallengeSender) SendEmailCode(emailAddress, code string) error {
	return util.SendVerificationEmail(emailAddress, code)
}

// RequirementSpec 요구사항 안내 테이블의 항목 하나
type RequirementSpec struct {
	Type               model.VerificationType
	Name               string
	Description        string
	RequiredForLevel   model.VerificationLevel // 빈 값이면 등급과 무관
	AutoProcessed      bool                    // 코드/제공업체로 자동 처리되는지
	EstimatedTimeLabel string
	Benefits           []string
}

// RequirementsConfig 수단별 요구사항 안내 테이블 (표시 순서 유지)
type RequirementsConfig struct {
	Specs []RequirementSpec
}

// DefaultRequirementsConfig 기본 안내 테이블
func DefaultRequirementsConfig() RequirementsConfig {
	return RequirementsConfig{Specs: []RequirementSpec{
		{
			Type:               model.VerificationTypeEmail,
			Name:               "이메일 인증",
			Description:        "이메일로 발송된 인증 코드를 확인합니다",
			RequiredForLevel:   model.VerificationLevelBasic,
			AutoProcessed:      true,
			EstimatedTimeLabel: "1분 이내",
			Benefits:           []string{"대여 문의 발신", "basic 등급 요건"},
		},
		{
			Type:               model.VerificationTypePhone,
			Name:               "휴대폰 인증",
			Description:        "휴대폰으로 발송된 인증 코드를 확인합니다",
			RequiredForLevel:   model.VerificationLevelBasic,
			AutoProcessed:      true,
			EstimatedTimeLabel: "1분 이내",
			Benefits:           []string{"대여 예약 신청", "basic 등급 요건"},
		},
		{
			Type:               model.VerificationTypeIdentity,
			Name:               "신분증 인증",
			Description:        "여권, 운전면허증 또는 주민등록증 사본을 제출합니다",
			RequiredForLevel:   model.VerificationLevelStandard,
			EstimatedTimeLabel: "영업일 1일",
			Benefits:           []string{"고가 장비 대여", "standard 등급 요건"},
		},
		{
			Type:               model.VerificationTypePayment,
			Name:               "결제수단 인증",
			Description:        "본인 명의의 카드 또는 계좌를 등록합니다",
			RequiredForLevel:   model.VerificationLevelStandard,
			EstimatedTimeLabel: "영업일 1일",
			Benefits:           []string{"보증금 간편 결제", "standard 등급 요건"},
		},
		{
			Type:               model.VerificationTypeAddress,
			Name:               "주소 인증",
			Description:        "공과금 고지서 등 거주지 증빙을 제출합니다",
			EstimatedTimeLabel: "영업일 1일",
			Benefits:           []string{"신뢰 점수 10점 추가"},
		},
		{
			Type:               model.VerificationTypeBackgroundCheck,
			Name:               "백그라운드 체크",
			Description:        "제공업체를 통해 범죄 이력과 신원을 조회합니다",
			RequiredForLevel:   model.VerificationLevelPremium,
			AutoProcessed:      true,
			EstimatedTimeLabel: "최대 7일",
			Benefits:           []string{"프리미엄 뱃지", "premium 등급 요건"},
		},
	}}
}

// MethodRequirement 인증 수단 하나의 요구사항 안내 응답
type MethodRequirement struct {
	Type               model.VerificationType  `json:"type"`
	Name               string                  `json:"name"`
	Description        string                  `json:"description"`
	Weight             int                     `json:"weight"`
	Required           bool                    `json:"required"` // 조회한 목표 등급에 필요한지
	RequiredForLevel   model.VerificationLevel `json:"required_for_level,omitempty"`
	AutoProcessed      bool                    `json:"auto_processed"`
	EstimatedTimeLabel string                  `json:"estimated_time_label"`
	Benefits           []string                `json:"benefits"`
}

// VerificationService 인증 요청 서비스 인터페이스
type VerificationService interface {
	Submit(userID uint, verificationType model.VerificationType, payload model.RequestPayload) (*model.VerificationRequest, error)
	ConfirmCode(ctx context.Context, userID, requestID uint, code string) (*model.VerificationRequest, error)
	GetRequest(userID, requestID uint) (*model.VerificationRequest, error)
	GetUserRequests(userID uint) ([]model.VerificationRequest, error)
	GetRequirements(level model.VerificationLevel) []MethodRequirement
}

type verificationService struct {
	requestRepo     repository.VerificationRequestRepository
	statusSvc       StatusService
	notificationSvc NotificationService
	codes           CodeStore
	sender          ChallengeSender
	bgSubmitter     BackgroundCheckSubmitter
	scoringCfg      ScoringConfig
	requirements    RequirementsConfig
	codeTTL         time.Duration
	maxCodeAttempts int
}

// NewVerificationService 인증 요청 서비스 생성자
func NewVerificationService(
	requestRepo repository.VerificationRequestRepository,
	statusSvc StatusService,
	notificationSvc NotificationService,
	codes CodeStore,
	sender ChallengeSender,
	bgSubmitter BackgroundCheckSubmitter,
	scoringCfg ScoringConfig,
	requirements RequirementsConfig,
	codeTTL time.Duration,
	maxCodeAttempts int,
) VerificationService {
	return &verificationService{
		requestRepo:     requestRepo,
		statusSvc:       statusSvc,
		notificationSvc: notificationSvc,
		codes:           codes,
		sender:          sender,
		bgSubmitter:     bgSubmitter,
		scoringCfg:      scoringCfg,
		requirements:    requirements,
		codeTTL:         codeTTL,
		maxCodeAttempts: maxCodeAttempts,
	}
}

// Submit 인증 요청 생성
// 휴대폰/이메일은 코드 챌린지를 발송하고, 백그라운드 체크는 제공업체에 접수한다.
// 나머지 수단은 관리자 검토 대기(pending) 상태로 남는다
func (s *verificationService) Submit(userID uint, verificationType model.VerificationType, payload model.RequestPayload) (*model.VerificationRequest, error) {
	logger.Info("Submitting verification request", map[string]interface{}{
		"user_id": userID,
		"type":    verificationType,
	})

	if !model.ValidVerificationType(verificationType) {
		return nil, ErrInvalidVerificationType
	}
	if !payload.MatchesType(verificationType) {
		return nil, ErrInvalidPayload
	}
	if err := s.validatePayload(verificationType, &payload); err != nil {
		return nil, err
	}

	status := model.RequestStatusPending
	if verificationType == model.VerificationTypeBackgroundCheck {
		// 백그라운드 체크는 제출 즉시 처리 중 상태로 생성됨
		status = model.RequestStatusInProgress
	}

	request := &model.VerificationRequest{
		UserID:      userID,
		Type:        verificationType,
		Status:      status,
		Payload:     payload,
		SubmittedAt: time.Now(),
	}

	if err := s.requestRepo.Create(request); err != nil {
		return nil, err
	}

	switch verificationType {
	case model.VerificationTypePhone:
		if err := s.sendChallenge(request, "phone", payload.Phone.PhoneNumber, s.sender.SendSMSCode); err != nil {
			return nil, err
		}
	case model.VerificationTypeEmail:
		if err := s.sendChallenge(request, "email", payload.Email.EmailAddress, s.sender.SendEmailCode); err != nil {
			return nil, err
		}
	case model.VerificationTypeBackgroundCheck:
		// 제공업체 접수는 비동기
		s.bgSubmitter.SubmitToProvider(request)
	}

	logger.Info("Verification request submitted", map[string]interface{}{
		"request_id": request.ID,
		"user_id":    userID,
		"type":       verificationType,
	})
	return request, nil
}

func (s *verificationService) validatePayload(t model.VerificationType, p *model.RequestPayload) error {
	switch t {
	case model.VerificationTypePhone:
		normalized := util.NormalizePhoneNumber(p.Phone.PhoneNumber)
		if !util.ValidPhoneNumber(normalized) {
			return ErrInvalidPayload
		}
		p.Phone.PhoneNumber = normalized
	case model.VerificationTypeEmail:
		if !emailPattern.MatchString(p.Email.EmailAddress) {
			return ErrInvalidPayload
		}
	case model.VerificationTypeIdentity:
		id := p.Identity
		validDoc := id.DocumentType == "passport" || id.DocumentType == "driver_license" || id.DocumentType == "national_id"
		if !validDoc || id.DocumentURL == "" || id.FullName == "" {
			return ErrInvalidPayload
		}
	case model.VerificationTypeAddress:
		addr := p.Address
		if addr.Address1 == "" || addr.City == "" || addr.PostalCode == "" || addr.ProofDocumentURL == "" {
			return ErrInvalidPayload
		}
	case model.VerificationTypePayment:
		pay := p.Payment
		validKind := pay.MethodKind == "card" || pay.MethodKind == "bank_account"
		if !validKind || len(pay.Last4) != 4 || pay.BillingName == "" {
			return ErrInvalidPayload
		}
	case model.VerificationTypeBackgroundCheck:
		bg := p.BackgroundCheck
		if !bg.ConsentGiven || bg.ConsentTimestamp == nil {
			return ErrConsentRequired
		}
		switch bg.CheckType {
		case model.CheckTypeBasic, model.CheckTypeStandard, model.CheckTypeComprehensive:
		default:
			return ErrInvalidPayload
		}
		bg.OverallStatus = model.OverallStatusPending
	}
	return nil
}

func (s *verificationService) sendChallenge(request *model.VerificationRequest, kind, destination string, send func(string, string) error) error {
	code, err := util.GenerateVerificationCode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.codes.Store(ctx, kind, request.UserID, code, s.codeTTL); err != nil {
		return err
	}

	if err := send(destination, code); err != nil {
		logger.Error("Failed to send verification code", err, map[string]interface{}{
			"request_id": request.ID,
			"kind":       kind,
		})
		return err
	}

	logger.Info("Verification code sent", map[string]interface{}{
		"request_id": request.ID,
		"kind":       kind,
	})
	return nil
}

// ConfirmCode 휴대폰/이메일 코드 확인 후 요청 승인
func (s *verificationService) ConfirmCode(ctx context.Context, userID, requestID uint, code string) (*model.VerificationRequest, error) {
	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if request.UserID != userID {
		return nil, ErrNotRequestOwner
	}

	var kind string
	switch request.Type {
	case model.VerificationTypePhone:
		kind = "phone"
	case model.VerificationTypeEmail:
		kind = "email"
	default:
		return nil, ErrInvalidVerificationType
	}

	if request.Status != model.RequestStatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.codes.Check(ctx, kind, userID, code, s.maxCodeAttempts); err != nil {
		switch {
		case errors.Is(err, redis.ErrTooManyAttempts):
			return nil, ErrTooManyCodeAttempts
		case errors.Is(err, redis.ErrCodeNotFound), errors.Is(err, redis.ErrCodeMismatch):
			return nil, ErrInvalidVerificationCode
		}
		return nil, err
	}

	now := time.Now()
	rows, err := s.requestRepo.UpdateStatusCAS(requestID,
		model.TransitionSources(model.RequestStatusApproved),
		map[string]interface{}{
			"status":      model.RequestStatusApproved,
			"reviewed_at": now,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// 경쟁 갱신에 짐 (이미 확인됐거나 반려됨)
		return nil, ErrInvalidTransition
	}

	request.Status = model.RequestStatusApproved
	request.ReviewedAt = &now

	if _, err := s.statusSvc.Recompute(userID); err != nil {
		logger.Error("Failed to recompute status after code confirmation", err, map[string]interface{}{
			"user_id":    userID,
			"request_id": requestID,
		})
		return nil, err
	}

	if err := s.notificationSvc.NotifyVerificationResult(request); err != nil {
		logger.Warn("Failed to send verification result notification", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
	}

	logger.Info("Verification request confirmed by code", map[string]interface{}{
		"request_id": requestID,
		"user_id":    userID,
		"type":       request.Type,
	})
	return request, nil
}

// GetRequest 단건 조회 (본인 요청만)
func (s *verificationService) GetRequest(userID, requestID uint) (*model.VerificationRequest, error) {
	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	if request.UserID != userID {
		return nil, ErrNotRequestOwner
	}
	return request, nil
}

// GetUserRequests 사용자의 인증 요청 이력 조회
func (s *verificationService) GetUserRequests(userID uint) ([]model.VerificationRequest, error) {
	return s.requestRepo.FindByUserID(userID)
}

// GetRequirements 목표 등급 기준의 수단별 요구사항 안내
func (s *verificationService) GetRequirements(level model.VerificationLevel) []MethodRequirement {
	requirements := make([]MethodRequirement, 0, len(s.requirements.Specs))
	for _, spec := range s.requirements.Specs {
		required := spec.RequiredForLevel != "" && spec.RequiredForLevel.Rank() <= level.Rank()
		requirements = append(requirements, MethodRequirement{
			Type:               spec.Type,
			Name:               spec.Name,
			Description:        spec.Description,
			Weight:             s.scoringCfg.Weights[spec.Type],
			Required:           required,
			RequiredForLevel:   spec.RequiredForLevel,
			AutoProcessed:      spec.AutoProcessed,
			EstimatedTimeLabel: spec.EstimatedTimeLabel,
			Benefits:           spec.Benefits,
		})
	}
	return requirements
}
