package scheduler

import (
	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// VerificationScheduler 백그라운드 체크 만료/폴링 스케줄러
type VerificationScheduler struct {
	cron  *cron.Cron
	bgSvc service.BackgroundCheckService
}

// NewVerificationScheduler 인증 스케줄러 생성
func NewVerificationScheduler(bgSvc service.BackgroundCheckService) *VerificationScheduler {
	return &VerificationScheduler{
		cron:  cron.New(),
		bgSvc: bgSvc,
	}
}

// Start 스케줄러 시작
func (s *VerificationScheduler) Start() error {
	// 매시 정각: 유효기간이 지난 백그라운드 체크 만료 처리
	_, err := s.cron.AddFunc("0 * * * *", func() {
		logger.Info("Starting scheduled background check expiry sweep", nil)

		count, err := s.bgSvc.ExpireOverdue()
		if err != nil {
			logger.Error("Failed to expire overdue background checks", err)
			return
		}

		logger.Info("Background check expiry sweep completed", map[string]interface{}{
			"expired": count,
		})
	})
	if err != nil {
		logger.Error("Failed to add cron job for background check expiry", err)
		return err
	}

	// 10분마다: webhook 유실 대비 제공업체 결과 폴링
	_, err = s.cron.AddFunc("*/10 * * * *", func() {
		count, err := s.bgSvc.PollPending()
		if err != nil {
			logger.Error("Failed to poll pending background checks", err)
			return
		}

		if count > 0 {
			logger.Info("Background check poll sweep completed", map[string]interface{}{
				"processed": count,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for background check polling", err)
		return err
	}

	s.cron.Start()
	logger.Info("Verification scheduler started successfully (expiry hourly, poll every 10m)", nil)

	return nil
}

// Stop 스케줄러 중지
func (s *VerificationScheduler) Stop() {
	logger.Info("Stopping verification scheduler...", nil)
	s.cron.Stop()
	logger.Info("Verification scheduler stopped", nil)
}
