package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/pkg/bgcheck"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnknownExternalID = errors.New("no verification request for external ID")
)

// 백그라운드 체크 결과 유효기간
const backgroundCheckValidity = 365 * 24 * time.Hour

// ProviderClient 백그라운드 체크 제공업체 API
type ProviderClient interface {
	ProviderName() string
	Submit(ctx context.Context, req bgcheck.SubmitRequest) (*bgcheck.SubmitResponse, error)
	GetResult(ctx context.Context, externalID string) (*bgcheck.ResultResponse, error)
}

// BackgroundCheckService 백그라운드 체크 오케스트레이션 서비스 인터페이스
type BackgroundCheckService interface {
	SubmitToProvider(request *model.VerificationRequest)
	OnProviderResult(result *bgcheck.ResultResponse) error
	ExpireOverdue() (int, error)
	PollPending() (int, error)
}

type backgroundCheckService struct {
	requestRepo     repository.VerificationRequestRepository
	statusSvc       StatusService
	notificationSvc NotificationService
	client          ProviderClient
	recheckAfter    time.Duration
	maxPendingAge   time.Duration
}

// NewBackgroundCheckService 백그라운드 체크 서비스 생성자
func NewBackgroundCheckService(
	requestRepo repository.VerificationRequestRepository,
	statusSvc StatusService,
	notificationSvc NotificationService,
	client ProviderClient,
	recheckAfter, maxPendingAge time.Duration,
) BackgroundCheckService {
	return &backgroundCheckService{
		requestRepo:     requestRepo,
		statusSvc:       statusSvc,
		notificationSvc: notificationSvc,
		client:          client,
		recheckAfter:    recheckAfter,
		maxPendingAge:   maxPendingAge,
	}
}

// SubmitToProvider hands the request off to the provider asynchronously.
// 접수에 실패해도 요청은 in_progress로 남는다. 오래 머무는 요청은 PollPending이 정리한다
func (s *backgroundCheckService) SubmitToProvider(request *model.VerificationRequest) {
	go s.submit(request)
}

func (s *backgroundCheckService) submit(request *model.VerificationRequest) {
	bg := request.Payload.BackgroundCheck
	if bg == nil {
		logger.Error("Background check submit called without payload", nil, map[string]interface{}{
			"request_id": request.ID,
		})
		return
	}

	externalID := uuid.New().String()
	bg.ExternalID = externalID
	bg.Provider = s.client.ProviderName()

	if err := s.requestRepo.UpdatePayload(request.ID, request.Payload); err != nil {
		return
	}
	if err := s.requestRepo.UpdateExternalID(request.ID, externalID); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	submitReq := bgcheck.SubmitRequest{
		ExternalID: externalID,
		CheckType:  string(bg.CheckType),
		Subject:    s.buildSubject(request.UserID),
		Consent: bgcheck.ConsentProof{
			Given:     bg.ConsentGiven,
			Timestamp: bg.ConsentTimestamp,
		},
	}

	if _, err := s.client.Submit(ctx, submitReq); err != nil {
		// 요청은 in_progress로 남겨 poll 경로가 재시도하거나 타임아웃 처리하게 한다
		logger.Error("Failed to submit background check to provider", err, map[string]interface{}{
			"request_id":  request.ID,
			"external_id": externalID,
		})
		return
	}

	logger.Info("Background check submitted to provider", map[string]interface{}{
		"request_id":  request.ID,
		"external_id": externalID,
		"provider":    s.client.ProviderName(),
		"check_type":  bg.CheckType,
	})
}

// buildSubject collects identity hints from the user's approved requests
func (s *backgroundCheckService) buildSubject(userID uint) bgcheck.SubjectIdentity {
	var subject bgcheck.SubjectIdentity

	approved, err := s.requestRepo.FindApprovedByUserID(userID)
	if err != nil {
		return subject
	}

	for _, req := range approved {
		switch req.Type {
		case model.VerificationTypeIdentity:
			if id := req.Payload.Identity; id != nil {
				subject.FullName = id.FullName
				subject.BirthDate = id.BirthDate
			}
		case model.VerificationTypePhone:
			if p := req.Payload.Phone; p != nil {
				subject.PhoneNumber = p.PhoneNumber
			}
		case model.VerificationTypeEmail:
			if e := req.Payload.Email; e != nil {
				subject.EmailAddress = e.EmailAddress
			}
		}
	}
	return subject
}

// OnProviderResult applies a provider result to the matching request.
// webhook과 poll 양쪽에서 호출되며 중복 전달에도 안전하다
func (s *backgroundCheckService) OnProviderResult(result *bgcheck.ResultResponse) error {
	request, err := s.requestRepo.FindByExternalID(result.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownExternalID
		}
		return err
	}

	if request.Status.IsTerminal() {
		// 이미 처리된 결과의 재전달
		logger.Debug("Ignoring provider result for finalized request", map[string]interface{}{
			"request_id":  request.ID,
			"external_id": result.ExternalID,
			"status":      request.Status,
		})
		return nil
	}

	if result.Status != "complete" || result.Results == nil {
		return nil
	}

	bg := request.Payload.BackgroundCheck
	if bg == nil {
		return fmt.Errorf("request %d has no background check payload", request.ID)
	}

	overall, risk := evaluateOutcome(result.Results)

	now := time.Now()
	bg.Results = toCheckResults(result.Results)
	bg.OverallStatus = overall
	bg.RiskLevel = risk

	// 세부 체크가 남아 있으면 아직 완료가 아니므로 완료/만료 시각을 찍지 않는다
	if overall != model.OverallStatusPending {
		completedAt := result.CompletedAt
		if completedAt == nil {
			completedAt = &now
		}
		expiresAt := completedAt.Add(backgroundCheckValidity)
		bg.CompletedAt = completedAt
		bg.ExpiresAt = &expiresAt
	}

	if err := s.requestRepo.UpdatePayload(request.ID, request.Payload); err != nil {
		return err
	}

	logger.Info("Background check result evaluated", map[string]interface{}{
		"request_id":  request.ID,
		"external_id": result.ExternalID,
		"overall":     overall,
		"risk":        risk,
	})

	switch overall {
	case model.OverallStatusPass:
		rows, err := s.requestRepo.UpdateStatusCAS(request.ID,
			model.TransitionSources(model.RequestStatusApproved),
			map[string]interface{}{
				"status":      model.RequestStatusApproved,
				"reviewed_at": now,
			})
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		request.Status = model.RequestStatusApproved
		request.ReviewedAt = &now

		if _, err := s.statusSvc.Recompute(request.UserID); err != nil {
			return err
		}
		s.notifyResult(request)

	case model.OverallStatusFail:
		reason := failureReason(result.Results)
		rows, err := s.requestRepo.UpdateStatusCAS(request.ID,
			model.TransitionSources(model.RequestStatusRejected),
			map[string]interface{}{
				"status":           model.RequestStatusRejected,
				"reviewed_at":      now,
				"rejection_reason": reason,
			})
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		request.Status = model.RequestStatusRejected
		request.ReviewedAt = &now
		request.RejectionReason = reason
		s.notifyResult(request)

	case model.OverallStatusReviewRequired:
		// 관리자 검토 대상, in_progress로 유지
		logger.Info("Background check flagged for manual review", map[string]interface{}{
			"request_id": request.ID,
		})

	case model.OverallStatusPending:
		// 일부 세부 체크 결과 대기, 다음 poll에서 재확인
	}

	return nil
}

// evaluateOutcome maps sub-check results to an overall status and risk level.
// 규칙은 위에서부터 먼저 걸리는 것이 적용된다
func evaluateOutcome(results *bgcheck.CheckOutcome) (model.OverallStatus, model.RiskLevel) {
	switch {
	case results.SexOffenderRegistry.Status == model.CheckResultFound:
		return model.OverallStatusFail, model.RiskLevelHigh
	case results.GlobalWatchlist.Status == model.CheckResultFound:
		return model.OverallStatusFail, model.RiskLevelHigh
	case results.IdentityVerification.Status == model.CheckResultFailed:
		return model.OverallStatusFail, model.RiskLevelMedium
	case results.CriminalHistory.Status == model.CheckResultRecordsFound:
		return model.OverallStatusReviewRequired, model.RiskLevelMedium
	case anyPending(results):
		return model.OverallStatusPending, ""
	default:
		return model.OverallStatusPass, model.RiskLevelLow
	}
}

func anyPending(results *bgcheck.CheckOutcome) bool {
	subs := []bgcheck.SubResult{
		results.CriminalHistory,
		results.SexOffenderRegistry,
		results.GlobalWatchlist,
		results.IdentityVerification,
	}
	if results.MotorVehicleRecords != nil {
		subs = append(subs, *results.MotorVehicleRecords)
	}
	for _, sub := range subs {
		if sub.Status == model.CheckResultPending {
			return true
		}
	}
	return false
}

func failureReason(results *bgcheck.CheckOutcome) string {
	var reasons []string
	if results.SexOffenderRegistry.Status == model.CheckResultFound {
		reasons = append(reasons, "성범죄자 등록부 등재가 확인되었습니다")
	}
	if results.GlobalWatchlist.Status == model.CheckResultFound {
		reasons = append(reasons, "국제 감시 대상 등재가 확인되었습니다")
	}
	if results.IdentityVerification.Status == model.CheckResultFailed {
		reasons = append(reasons, "신원 확인에 실패했습니다")
	}
	if len(reasons) == 0 {
		return "백그라운드 체크를 통과하지 못했습니다"
	}
	return strings.Join(reasons, ". ")
}

func toCheckResults(outcome *bgcheck.CheckOutcome) *model.CheckResults {
	results := &model.CheckResults{
		CriminalHistory:      model.CheckResult(outcome.CriminalHistory),
		SexOffenderRegistry:  model.CheckResult(outcome.SexOffenderRegistry),
		GlobalWatchlist:      model.CheckResult(outcome.GlobalWatchlist),
		IdentityVerification: model.CheckResult(outcome.IdentityVerification),
	}
	if outcome.MotorVehicleRecords != nil {
		mvr := model.CheckResult(*outcome.MotorVehicleRecords)
		results.MotorVehicleRecords = &mvr
	}
	return results
}

// ExpireOverdue moves approved background checks past their validity to expired.
// 만료된 사용자는 상태 재계산으로 premium 요건을 잃는다
func (s *backgroundCheckService) ExpireOverdue() (int, error) {
	approved, err := s.requestRepo.FindApprovedBackgroundChecks()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := 0
	for i := range approved {
		request := &approved[i]
		bg := request.Payload.BackgroundCheck
		if bg == nil || bg.ExpiresAt == nil || bg.ExpiresAt.After(now) {
			continue
		}

		rows, err := s.requestRepo.UpdateStatusCAS(request.ID,
			model.TransitionSources(model.RequestStatusExpired),
			map[string]interface{}{"status": model.RequestStatusExpired})
		if err != nil {
			logger.Error("Failed to expire background check", err, map[string]interface{}{
				"request_id": request.ID,
			})
			continue
		}
		if rows == 0 {
			continue
		}

		request.Status = model.RequestStatusExpired
		expired++

		if _, err := s.statusSvc.Recompute(request.UserID); err != nil {
			logger.Error("Failed to recompute status after expiry", err, map[string]interface{}{
				"user_id": request.UserID,
			})
			continue
		}
		s.notifyResult(request)
	}

	if expired > 0 {
		logger.Info("Expired overdue background checks", map[string]interface{}{
			"count": expired,
		})
	}
	return expired, nil
}

// PollPending re-checks stale in-progress requests against the provider.
// webhook 유실 대비 보조 경로이며, 너무 오래된 요청은 타임아웃으로 반려한다
func (s *backgroundCheckService) PollPending() (int, error) {
	cutoff := time.Now().Add(-s.recheckAfter)
	stale, err := s.requestRepo.FindStaleInProgress(model.VerificationTypeBackgroundCheck, cutoff)
	if err != nil {
		return 0, err
	}

	processed := 0
	deadline := time.Now().Add(-s.maxPendingAge)

	for i := range stale {
		request := &stale[i]

		if request.SubmittedAt.Before(deadline) {
			s.rejectWithReason(request,
				"제공업체 응답 지연으로 처리되지 못했습니다. 다시 시도해주세요.")
			processed++
			continue
		}

		if request.ExternalID == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		result, err := s.client.GetResult(ctx, request.ExternalID)
		cancel()
		if err != nil {
			logger.Warn("Failed to poll background check result", map[string]interface{}{
				"request_id":  request.ID,
				"external_id": request.ExternalID,
				"error":       err.Error(),
			})
			continue
		}

		if err := s.OnProviderResult(result); err != nil {
			logger.Error("Failed to apply polled background check result", err, map[string]interface{}{
				"request_id": request.ID,
			})
			continue
		}
		processed++
	}

	return processed, nil
}

func (s *backgroundCheckService) rejectWithReason(request *model.VerificationRequest, reason string) {
	now := time.Now()
	rows, err := s.requestRepo.UpdateStatusCAS(request.ID,
		model.TransitionSources(model.RequestStatusRejected),
		map[string]interface{}{
			"status":           model.RequestStatusRejected,
			"reviewed_at":      now,
			"rejection_reason": reason,
		})
	if err != nil || rows == 0 {
		return
	}

	request.Status = model.RequestStatusRejected
	request.ReviewedAt = &now
	request.RejectionReason = reason

	if _, err := s.statusSvc.Recompute(request.UserID); err != nil {
		logger.Error("Failed to recompute status after rejection", err, map[string]interface{}{
			"user_id": request.UserID,
		})
	}
	s.notifyResult(request)
}

func (s *backgroundCheckService) notifyResult(request *model.VerificationRequest) {
	if err := s.notificationSvc.NotifyVerificationResult(request); err != nil {
		logger.Warn("Failed to send background check notification", map[string]interface{}{
			"request_id": request.ID,
			"error":      err.Error(),
		})
	}
}
