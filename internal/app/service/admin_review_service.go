package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrAlreadyReviewed  = errors.New("verification request already finalized")
	ErrReasonRequired   = errors.New("rejection reason is required")
	ErrCannotReviewType = errors.New("this verification type is processed automatically")
)

// AdminReviewService 관리자 검토 서비스 인터페이스
type AdminReviewService interface {
	ListRequests(status, verificationType string) ([]model.VerificationRequest, error)
	Approve(requestID, adminID uint, notes string) (*model.VerificationRequest, error)
	Reject(requestID, adminID uint, reason string) (*model.VerificationRequest, error)
	ExportRequests(status, verificationType string) ([]byte, error)
}

type adminReviewService struct {
	requestRepo     repository.VerificationRequestRepository
	statusSvc       StatusService
	notificationSvc NotificationService
}

// NewAdminReviewService 관리자 검토 서비스 생성자
func NewAdminReviewService(
	requestRepo repository.VerificationRequestRepository,
	statusSvc StatusService,
	notificationSvc NotificationService,
) AdminReviewService {
	return &adminReviewService{
		requestRepo:     requestRepo,
		statusSvc:       statusSvc,
		notificationSvc: notificationSvc,
	}
}

// ListRequests 상태/수단 필터로 전체 요청 조회
func (s *adminReviewService) ListRequests(status, verificationType string) ([]model.VerificationRequest, error) {
	return s.requestRepo.FindAll(status, verificationType)
}

// Approve 인증 요청 승인
// 코드 챌린지 수단(이메일/휴대폰)은 자동 처리라 수동 승인 대상이 아니다
func (s *adminReviewService) Approve(requestID, adminID uint, notes string) (*model.VerificationRequest, error) {
	request, err := s.findReviewable(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      model.RequestStatusApproved,
		"reviewed_at": now,
		"reviewed_by": adminID,
	}
	if notes != "" {
		updates["notes"] = notes
	}

	rows, err := s.requestRepo.UpdateStatusCAS(requestID,
		model.TransitionSources(model.RequestStatusApproved), updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// 경쟁 갱신에 짐 (자동 처리 또는 다른 관리자가 먼저 확정)
		return nil, ErrAlreadyReviewed
	}

	request.Status = model.RequestStatusApproved
	request.ReviewedAt = &now
	request.ReviewedBy = &adminID
	request.Notes = notes

	if _, err := s.statusSvc.Recompute(request.UserID); err != nil {
		return nil, err
	}
	s.notifyResult(request)

	logger.Info("Verification request approved by admin", map[string]interface{}{
		"request_id": requestID,
		"admin_id":   adminID,
		"user_id":    request.UserID,
		"type":       request.Type,
	})
	return request, nil
}

// Reject 인증 요청 반려 (사유 필수)
func (s *adminReviewService) Reject(requestID, adminID uint, reason string) (*model.VerificationRequest, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	request, err := s.findReviewable(requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows, err := s.requestRepo.UpdateStatusCAS(requestID,
		model.TransitionSources(model.RequestStatusRejected),
		map[string]interface{}{
			"status":           model.RequestStatusRejected,
			"reviewed_at":      now,
			"reviewed_by":      adminID,
			"rejection_reason": reason,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyReviewed
	}

	request.Status = model.RequestStatusRejected
	request.ReviewedAt = &now
	request.ReviewedBy = &adminID
	request.RejectionReason = reason

	if _, err := s.statusSvc.Recompute(request.UserID); err != nil {
		return nil, err
	}
	s.notifyResult(request)

	logger.Info("Verification request rejected by admin", map[string]interface{}{
		"request_id": requestID,
		"admin_id":   adminID,
		"user_id":    request.UserID,
		"type":       request.Type,
	})
	return request, nil
}

func (s *adminReviewService) findReviewable(requestID uint) (*model.VerificationRequest, error) {
	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if request.Status.IsTerminal() {
		return nil, ErrAlreadyReviewed
	}

	// 코드 챌린지 수단은 코드 확인으로만 승인됨
	if request.Type == model.VerificationTypeEmail || request.Type == model.VerificationTypePhone {
		return nil, ErrCannotReviewType
	}

	return request, nil
}

func (s *adminReviewService) notifyResult(request *model.VerificationRequest) {
	if err := s.notificationSvc.NotifyVerificationResult(request); err != nil {
		logger.Warn("Failed to send review result notification", map[string]interface{}{
			"request_id": request.ID,
			"error":      err.Error(),
		})
	}
}

// ExportRequests 필터에 걸린 요청을 XLSX로 내보내기
func (s *adminReviewService) ExportRequests(status, verificationType string) ([]byte, error) {
	requests, err := s.requestRepo.FindAll(status, verificationType)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Verifications"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "사용자 ID", "수단", "상태", "제출일", "검토일", "검토자", "반려 사유", "메모"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, request := range requests {
		reviewedAt := ""
		if request.ReviewedAt != nil {
			reviewedAt = request.ReviewedAt.Format("2006-01-02 15:04:05")
		}
		reviewedBy := ""
		if request.ReviewedBy != nil {
			reviewedBy = fmt.Sprintf("%d", *request.ReviewedBy)
		}

		values := []interface{}{
			request.ID,
			request.UserID,
			string(request.Type),
			string(request.Status),
			request.SubmittedAt.Format("2006-01-02 15:04:05"),
			reviewedAt,
			reviewedBy,
			request.RejectionReason,
			request.Notes,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write XLSX: %w", err)
	}

	logger.Info("Verification requests exported", map[string]interface{}{
		"count":  len(requests),
		"status": status,
		"type":   verificationType,
	})
	return buf.Bytes(), nil
}
