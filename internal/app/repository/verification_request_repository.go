package repository

import (
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"gorm.io/gorm"
)

type VerificationRequestRepository interface {
	Create(request *model.VerificationRequest) error
	FindByID(id uint) (*model.VerificationRequest, error)
	FindByUserID(userID uint) ([]model.VerificationRequest, error)
	FindAll(status, verificationType string) ([]model.VerificationRequest, error)
	FindApprovedByUserID(userID uint) ([]model.VerificationRequest, error)
	FindByExternalID(externalID string) (*model.VerificationRequest, error)
	FindApprovedBackgroundChecks() ([]model.VerificationRequest, error)
	FindStaleInProgress(verificationType model.VerificationType, olderThan time.Time) ([]model.VerificationRequest, error)
	UpdatePayload(id uint, payload model.RequestPayload) error
	UpdateExternalID(id uint, externalID string) error
	UpdateStatusCAS(id uint, allowedFrom []model.RequestStatus, updates map[string]interface{}) (int64, error)
}

type verificationRequestRepository struct {
	db *gorm.DB
}

func NewVerificationRequestRepository(db *gorm.DB) VerificationRequestRepository {
	return &verificationRequestRepository{db: db}
}

func (r *verificationRequestRepository) Create(request *model.VerificationRequest) error {
	logger.Debug("Creating verification request in database", map[string]interface{}{
		"user_id": request.UserID,
		"type":    request.Type,
	})

	if err := r.db.Create(request).Error; err != nil {
		logger.Error("Failed to create verification request in database", err, map[string]interface{}{
			"user_id": request.UserID,
			"type":    request.Type,
		})
		return err
	}

	logger.Debug("Verification request created in database", map[string]interface{}{
		"request_id": request.ID,
		"user_id":    request.UserID,
		"type":       request.Type,
		"status":     request.Status,
	})
	return nil
}

func (r *verificationRequestRepository) FindByID(id uint) (*model.VerificationRequest, error) {
	logger.Debug("Finding verification request by ID in database", map[string]interface{}{
		"request_id": id,
	})

	var request model.VerificationRequest
	if err := r.db.First(&request, id).Error; err != nil {
		logger.Error("Failed to find verification request by ID in database", err, map[string]interface{}{
			"request_id": id,
		})
		return nil, err
	}

	return &request, nil
}

func (r *verificationRequestRepository) FindByUserID(userID uint) ([]model.VerificationRequest, error) {
	logger.Debug("Finding verification requests by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var requests []model.VerificationRequest
	if err := r.db.Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find verification requests by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Verification requests found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(requests),
	})
	return requests, nil
}

func (r *verificationRequestRepository) FindAll(status, verificationType string) ([]model.VerificationRequest, error) {
	logger.Debug("Finding all verification requests in database", map[string]interface{}{
		"status": status,
		"type":   verificationType,
	})

	query := r.db.Model(&model.VerificationRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if verificationType != "" {
		query = query.Where("type = ?", verificationType)
	}

	var requests []model.VerificationRequest
	if err := query.Order("submitted_at DESC").Find(&requests).Error; err != nil {
		logger.Error("Failed to find all verification requests in database", err, map[string]interface{}{
			"status": status,
			"type":   verificationType,
		})
		return nil, err
	}

	logger.Debug("All verification requests found in database", map[string]interface{}{
		"count": len(requests),
	})
	return requests, nil
}

func (r *verificationRequestRepository) FindApprovedByUserID(userID uint) ([]model.VerificationRequest, error) {
	logger.Debug("Finding approved verification requests by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var requests []model.VerificationRequest
	if err := r.db.Where("user_id = ? AND status = ?", userID, model.RequestStatusApproved).
		Order("submitted_at ASC").
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find approved verification requests in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return requests, nil
}

func (r *verificationRequestRepository) FindByExternalID(externalID string) (*model.VerificationRequest, error) {
	logger.Debug("Finding verification request by external ID in database", map[string]interface{}{
		"external_id": externalID,
	})

	var request model.VerificationRequest
	if err := r.db.Where("external_id = ?", externalID).First(&request).Error; err != nil {
		logger.Error("Failed to find verification request by external ID in database", err, map[string]interface{}{
			"external_id": externalID,
		})
		return nil, err
	}

	return &request, nil
}

// FindApprovedBackgroundChecks returns every approved background check.
// 만료 여부 판단은 payload 안의 expires_at이라 서비스 레이어에서 거른다
func (r *verificationRequestRepository) FindApprovedBackgroundChecks() ([]model.VerificationRequest, error) {
	var requests []model.VerificationRequest
	if err := r.db.Where("type = ? AND status = ?",
		model.VerificationTypeBackgroundCheck, model.RequestStatusApproved).
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find approved background checks in database", err)
		return nil, err
	}
	return requests, nil
}

func (r *verificationRequestRepository) FindStaleInProgress(verificationType model.VerificationType, olderThan time.Time) ([]model.VerificationRequest, error) {
	logger.Debug("Finding stale in-progress requests in database", map[string]interface{}{
		"type":       verificationType,
		"older_than": olderThan,
	})

	var requests []model.VerificationRequest
	if err := r.db.Where("type = ? AND status = ? AND submitted_at < ?",
		verificationType, model.RequestStatusInProgress, olderThan).
		Find(&requests).Error; err != nil {
		logger.Error("Failed to find stale in-progress requests in database", err, map[string]interface{}{
			"type": verificationType,
		})
		return nil, err
	}

	return requests, nil
}

func (r *verificationRequestRepository) UpdatePayload(id uint, payload model.RequestPayload) error {
	logger.Debug("Updating verification request payload in database", map[string]interface{}{
		"request_id": id,
	})

	if err := r.db.Model(&model.VerificationRequest{}).
		Where("id = ?", id).
		Update("payload", payload).Error; err != nil {
		logger.Error("Failed to update verification request payload in database", err, map[string]interface{}{
			"request_id": id,
		})
		return err
	}

	return nil
}

func (r *verificationRequestRepository) UpdateExternalID(id uint, externalID string) error {
	if err := r.db.Model(&model.VerificationRequest{}).
		Where("id = ?", id).
		Update("external_id", externalID).Error; err != nil {
		logger.Error("Failed to update verification request external ID in database", err, map[string]interface{}{
			"request_id": id,
		})
		return err
	}
	return nil
}

// UpdateStatusCAS applies updates only if the current status is one of allowedFrom.
// 반환된 RowsAffected가 0이면 경쟁 갱신에 진 것이므로 호출자가 판단한다
func (r *verificationRequestRepository) UpdateStatusCAS(id uint, allowedFrom []model.RequestStatus, updates map[string]interface{}) (int64, error) {
	logger.Debug("Updating verification request status in database", map[string]interface{}{
		"request_id":   id,
		"allowed_from": allowedFrom,
		"new_status":   updates["status"],
	})

	result := r.db.Model(&model.VerificationRequest{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update verification request status in database", result.Error, map[string]interface{}{
			"request_id": id,
		})
		return 0, result.Error
	}

	logger.Debug("Verification request status updated in database", map[string]interface{}{
		"request_id":    id,
		"rows_affected": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
