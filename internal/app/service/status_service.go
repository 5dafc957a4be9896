package service

import (
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"gorm.io/gorm"
)

// StatusService 사용자 인증 종합 상태 서비스 인터페이스
type StatusService interface {
	GetStatus(userID uint) (*model.UserVerificationStatus, error)
	Recompute(userID uint) (*model.UserVerificationStatus, error)
}

// LevelChangeNotifier 등급 변경 알림 발행자
type LevelChangeNotifier interface {
	NotifyLevelChanged(userID uint, oldLevel, newLevel model.VerificationLevel) error
}

type statusService struct {
	requestRepo repository.VerificationRequestRepository
	statusRepo  repository.VerificationStatusRepository
	scoringCfg  ScoringConfig
	badgeCfg    BadgeConfig
	notifier    LevelChangeNotifier // nil이면 알림 생략
}

// NewStatusService 인증 상태 서비스 생성자
func NewStatusService(
	requestRepo repository.VerificationRequestRepository,
	statusRepo repository.VerificationStatusRepository,
	scoringCfg ScoringConfig,
	badgeCfg BadgeConfig,
	notifier LevelChangeNotifier,
) StatusService {
	return &statusService{
		requestRepo: requestRepo,
		statusRepo:  statusRepo,
		scoringCfg:  scoringCfg,
		badgeCfg:    badgeCfg,
		notifier:    notifier,
	}
}

// GetStatus 사용자의 인증 종합 상태 조회
// 이력이 없는 사용자는 기본값(none, 점수 0, 뱃지 없음)을 반환한다
func (s *statusService) GetStatus(userID uint) (*model.UserVerificationStatus, error) {
	status, err := s.statusRepo.FindByUserID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.ZeroStatus(userID), nil
		}
		return nil, err
	}
	return status, nil
}

// Recompute rebuilds the whole status row from approved requests and overwrites it.
// 부분 수정 대신 전체 재계산이라 어떤 전이 순서로 와도 결과가 같다
func (s *statusService) Recompute(userID uint) (*model.UserVerificationStatus, error) {
	logger.Debug("Recomputing user verification status", map[string]interface{}{
		"user_id": userID,
	})

	approved, err := s.requestRepo.FindApprovedByUserID(userID)
	if err != nil {
		return nil, err
	}

	var methods model.VerifiedMethods
	var bgOverall model.OverallStatus
	var bgRisk model.RiskLevel
	var bgExpiresAt *time.Time

	for _, req := range approved {
		methods.Set(req.Type, true)
		if req.Type == model.VerificationTypeBackgroundCheck && req.Payload.BackgroundCheck != nil {
			bg := req.Payload.BackgroundCheck
			bgOverall = bg.OverallStatus
			bgRisk = bg.RiskLevel
			bgExpiresAt = bg.ExpiresAt
		}
	}

	oldLevel := model.VerificationLevelNone
	var existingBadges model.BadgeList
	if prev, err := s.statusRepo.FindByUserID(userID); err == nil {
		oldLevel = prev.VerificationLevel
		existingBadges = prev.Badges
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now()
	level := computeLevel(methods)

	status := &model.UserVerificationStatus{
		UserID:                   userID,
		IsVerified:               level.Rank() >= model.VerificationLevelBasic.Rank(),
		VerificationLevel:        level,
		Methods:                  methods,
		BackgroundCheckOverall:   bgOverall,
		BackgroundCheckRisk:      bgRisk,
		BackgroundCheckExpiresAt: bgExpiresAt,
		VerificationScore:        computeScore(s.scoringCfg, methods),
		Badges:                   deriveBadges(s.badgeCfg, methods, existingBadges, now),
		LastUpdated:              now,
	}

	if err := s.statusRepo.Upsert(status); err != nil {
		return nil, err
	}

	if s.notifier != nil && status.VerificationLevel != oldLevel {
		if err := s.notifier.NotifyLevelChanged(userID, oldLevel, status.VerificationLevel); err != nil {
			// 알림 실패가 재계산을 되돌리지는 않는다
			logger.Warn("Failed to send level change notification", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	logger.Info("User verification status recomputed", map[string]interface{}{
		"user_id": userID,
		"level":   status.VerificationLevel,
		"score":   status.VerificationScore,
		"badges":  len(status.Badges),
	})
	return status, nil
}
