package repository

import (
	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationStatusRepository interface {
	FindByUserID(userID uint) (*model.UserVerificationStatus, error)
	Upsert(status *model.UserVerificationStatus) error
}

type verificationStatusRepository struct {
	db *gorm.DB
}

func NewVerificationStatusRepository(db *gorm.DB) VerificationStatusRepository {
	return &verificationStatusRepository{db: db}
}

func (r *verificationStatusRepository) FindByUserID(userID uint) (*model.UserVerificationStatus, error) {
	logger.Debug("Finding user verification status in database", map[string]interface{}{
		"user_id": userID,
	})

	var status model.UserVerificationStatus
	if err := r.db.Where("user_id = ?", userID).First(&status).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find user verification status in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	return &status, nil
}

// Upsert overwrites the single row per user with a freshly computed status
func (r *verificationStatusRepository) Upsert(status *model.UserVerificationStatus) error {
	logger.Debug("Upserting user verification status in database", map[string]interface{}{
		"user_id": status.UserID,
		"level":   status.VerificationLevel,
		"score":   status.VerificationScore,
	})

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_verified", "verification_level",
			"email_verified", "phone_verified", "identity_verified",
			"payment_verified", "address_verified", "background_check_verified",
			"background_check_overall", "background_check_risk", "background_check_expires_at",
			"verification_score", "badges", "last_updated", "updated_at",
		}),
	}).Create(status).Error
	if err != nil {
		logger.Error("Failed to upsert user verification status in database", err, map[string]interface{}{
			"user_id": status.UserID,
		})
		return err
	}

	logger.Debug("User verification status upserted in database", map[string]interface{}{
		"user_id": status.UserID,
		"level":   status.VerificationLevel,
	})
	return nil
}
