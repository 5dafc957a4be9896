package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/internal/db"
	"github.com/daeyeo/daeyeo-backend/pkg/bgcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider 제공업체 API를 메모리에서 흉내냄
type fakeProvider struct {
	submitErr error
	submitted []bgcheck.SubmitRequest
	results   map[string]*bgcheck.ResultResponse
	getErr    error
}

func (f *fakeProvider) ProviderName() string { return "cleargate" }

func (f *fakeProvider) Submit(_ context.Context, req bgcheck.SubmitRequest) (*bgcheck.SubmitResponse, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return &bgcheck.SubmitResponse{ExternalID: req.ExternalID, Status: "accepted"}, nil
}

func (f *fakeProvider) GetResult(_ context.Context, externalID string) (*bgcheck.ResultResponse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	result, ok := f.results[externalID]
	if !ok {
		return nil, bgcheck.ErrCheckNotFound
	}
	return result, nil
}

func setupBackgroundCheckTest(t *testing.T) (*backgroundCheckService, *gorm.DB, *fakeProvider) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	requestRepo := repository.NewVerificationRequestRepository(testDB)
	statusRepo := repository.NewVerificationStatusRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)
	notificationSvc := NewNotificationService(notificationRepo, nil)
	statusSvc := NewStatusService(requestRepo, statusRepo,
		DefaultScoringConfig(), DefaultBadgeConfig(), notificationSvc)

	provider := &fakeProvider{results: make(map[string]*bgcheck.ResultResponse)}

	svc := NewBackgroundCheckService(requestRepo, statusSvc, notificationSvc,
		provider, time.Hour, 168*time.Hour).(*backgroundCheckService)

	return svc, testDB, provider
}

func createBackgroundCheckRequest(t *testing.T, testDB *gorm.DB, userID uint, status model.RequestStatus, externalID string) *model.VerificationRequest {
	t.Helper()

	consentAt := time.Now()
	request := &model.VerificationRequest{
		UserID:     userID,
		Type:       model.VerificationTypeBackgroundCheck,
		Status:     status,
		ExternalID: externalID,
		Payload: model.RequestPayload{
			BackgroundCheck: &model.BackgroundCheckPayload{
				CheckType:        model.CheckTypeStandard,
				Provider:         "cleargate",
				ExternalID:       externalID,
				ConsentGiven:     true,
				ConsentTimestamp: &consentAt,
				OverallStatus:    model.OverallStatusPending,
			},
		},
		SubmittedAt: time.Now(),
	}
	require.NoError(t, testDB.Create(request).Error)
	return request
}

func clearOutcome() *bgcheck.CheckOutcome {
	return &bgcheck.CheckOutcome{
		CriminalHistory:      bgcheck.SubResult{Status: model.CheckResultClear},
		SexOffenderRegistry:  bgcheck.SubResult{Status: model.CheckResultClear},
		GlobalWatchlist:      bgcheck.SubResult{Status: model.CheckResultClear},
		IdentityVerification: bgcheck.SubResult{Status: model.CheckResultVerified},
	}
}

func completeResult(externalID string, outcome *bgcheck.CheckOutcome) *bgcheck.ResultResponse {
	completed := time.Now()
	return &bgcheck.ResultResponse{
		ExternalID:  externalID,
		Status:      "complete",
		Results:     outcome,
		CompletedAt: &completed,
	}
}

func TestBackgroundCheckService_Submit_Success(t *testing.T) {
	svc, testDB, provider := setupBackgroundCheckTest(t)

	createApprovedRequest(t, testDB, 1, model.VerificationTypeIdentity, model.RequestPayload{
		Identity: &model.IdentityPayload{
			DocumentType: "passport",
			DocumentURL:  "https://cdn.daeyeo.kr/doc.jpg",
			FullName:     "김대여",
			BirthDate:    "19900101",
		},
	})

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "")
	svc.submit(request)

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
	assert.NotEmpty(t, saved.ExternalID)
	assert.Equal(t, saved.ExternalID, saved.Payload.BackgroundCheck.ExternalID)
	assert.Equal(t, "cleargate", saved.Payload.BackgroundCheck.Provider)

	require.Len(t, provider.submitted, 1)
	assert.Equal(t, "김대여", provider.submitted[0].Subject.FullName)
	assert.True(t, provider.submitted[0].Consent.Given)
}

func TestBackgroundCheckService_Submit_ProviderFailureStaysInProgress(t *testing.T) {
	svc, testDB, provider := setupBackgroundCheckTest(t)
	provider.submitErr = bgcheck.ErrNetworkError

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "")
	svc.submit(request)

	// 접수 실패는 반려하지 않고 poll 타임아웃에 맡김
	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
	assert.Empty(t, saved.RejectionReason)
	assert.NotEmpty(t, saved.ExternalID)
}

func TestBackgroundCheckService_OnProviderResult_Pass(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	// premium 요건의 나머지 수단을 먼저 승인
	createApprovedRequest(t, testDB, 1, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "renter@daeyeo.kr"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypeIdentity, model.RequestPayload{
		Identity: &model.IdentityPayload{DocumentType: "passport", DocumentURL: "https://cdn.daeyeo.kr/doc.jpg", FullName: "김대여"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypePayment, model.RequestPayload{
		Payment: &model.PaymentPayload{MethodKind: "card", Last4: "4242", BillingName: "김대여"},
	})

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-pass")

	err := svc.OnProviderResult(completeResult("ext-pass", clearOutcome()))
	require.NoError(t, err)

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusApproved, saved.Status)
	assert.Equal(t, model.OverallStatusPass, saved.Payload.BackgroundCheck.OverallStatus)
	assert.Equal(t, model.RiskLevelLow, saved.Payload.BackgroundCheck.RiskLevel)
	require.NotNil(t, saved.Payload.BackgroundCheck.ExpiresAt)

	var status model.UserVerificationStatus
	require.NoError(t, testDB.Where("user_id = ?", 1).First(&status).Error)
	assert.Equal(t, model.VerificationLevelPremium, status.VerificationLevel)

	var count int64
	testDB.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", 1, model.NotificationTypeVerificationApproved).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBackgroundCheckService_OnProviderResult_SexOffenderFail(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-fail")

	outcome := clearOutcome()
	outcome.SexOffenderRegistry.Status = model.CheckResultFound

	require.NoError(t, svc.OnProviderResult(completeResult("ext-fail", outcome)))

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusRejected, saved.Status)
	assert.Equal(t, model.OverallStatusFail, saved.Payload.BackgroundCheck.OverallStatus)
	assert.Equal(t, model.RiskLevelHigh, saved.Payload.BackgroundCheck.RiskLevel)
	assert.Contains(t, saved.RejectionReason, "성범죄자 등록부")
}

func TestBackgroundCheckService_OnProviderResult_RecordsFoundNeedsReview(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-review")

	outcome := clearOutcome()
	outcome.CriminalHistory.Status = model.CheckResultRecordsFound

	require.NoError(t, svc.OnProviderResult(completeResult("ext-review", outcome)))

	// 관리자 검토 대상이므로 상태는 그대로 in_progress
	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
	assert.Equal(t, model.OverallStatusReviewRequired, saved.Payload.BackgroundCheck.OverallStatus)
	assert.Equal(t, model.RiskLevelMedium, saved.Payload.BackgroundCheck.RiskLevel)
}

func TestBackgroundCheckService_OnProviderResult_SubResultStillPending(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-wait")

	outcome := clearOutcome()
	outcome.GlobalWatchlist.Status = model.CheckResultPending

	require.NoError(t, svc.OnProviderResult(completeResult("ext-wait", outcome)))

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
	assert.Equal(t, model.OverallStatusPending, saved.Payload.BackgroundCheck.OverallStatus)
	// 아직 완료가 아니므로 완료/만료 시각은 비어 있음
	assert.Nil(t, saved.Payload.BackgroundCheck.CompletedAt)
	assert.Nil(t, saved.Payload.BackgroundCheck.ExpiresAt)
}

func TestBackgroundCheckService_OnProviderResult_DuplicateDelivery(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-dup")
	result := completeResult("ext-dup", clearOutcome())

	require.NoError(t, svc.OnProviderResult(result))
	// webhook 재전송, 이미 종결된 요청이라 무시
	require.NoError(t, svc.OnProviderResult(result))

	var count int64
	testDB.Model(&model.Notification{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBackgroundCheckService_OnProviderResult_UnknownExternalID(t *testing.T) {
	svc, _, _ := setupBackgroundCheckTest(t)

	err := svc.OnProviderResult(completeResult("no-such-id", clearOutcome()))
	assert.ErrorIs(t, err, ErrUnknownExternalID)
}

func TestEvaluateOutcome_RulePrecedence(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*bgcheck.CheckOutcome)
		expectedStatus model.OverallStatus
		expectedRisk   model.RiskLevel
	}{
		{
			name:           "all clear passes",
			mutate:         func(*bgcheck.CheckOutcome) {},
			expectedStatus: model.OverallStatusPass,
			expectedRisk:   model.RiskLevelLow,
		},
		{
			name: "sex offender hit fails high",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.SexOffenderRegistry.Status = model.CheckResultFound
			},
			expectedStatus: model.OverallStatusFail,
			expectedRisk:   model.RiskLevelHigh,
		},
		{
			name: "watchlist hit fails high",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.GlobalWatchlist.Status = model.CheckResultFound
			},
			expectedStatus: model.OverallStatusFail,
			expectedRisk:   model.RiskLevelHigh,
		},
		{
			name: "identity mismatch fails medium",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.IdentityVerification.Status = model.CheckResultFailed
			},
			expectedStatus: model.OverallStatusFail,
			expectedRisk:   model.RiskLevelMedium,
		},
		{
			name: "criminal records need review",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.CriminalHistory.Status = model.CheckResultRecordsFound
			},
			expectedStatus: model.OverallStatusReviewRequired,
			expectedRisk:   model.RiskLevelMedium,
		},
		{
			name: "registry hit outranks criminal records",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.CriminalHistory.Status = model.CheckResultRecordsFound
				o.SexOffenderRegistry.Status = model.CheckResultFound
			},
			expectedStatus: model.OverallStatusFail,
			expectedRisk:   model.RiskLevelHigh,
		},
		{
			name: "pending motor vehicle record keeps waiting",
			mutate: func(o *bgcheck.CheckOutcome) {
				o.MotorVehicleRecords = &bgcheck.SubResult{Status: model.CheckResultPending}
			},
			expectedStatus: model.OverallStatusPending,
			expectedRisk:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := clearOutcome()
			tt.mutate(outcome)

			status, risk := evaluateOutcome(outcome)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedRisk, risk)
		})
	}
}

func TestBackgroundCheckService_ExpireOverdue(t *testing.T) {
	svc, testDB, _ := setupBackgroundCheckTest(t)

	// premium 요건의 나머지 수단을 모두 승인해 둠
	createApprovedRequest(t, testDB, 1, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "renter@daeyeo.kr"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypeIdentity, model.RequestPayload{
		Identity: &model.IdentityPayload{DocumentType: "passport", DocumentURL: "https://cdn.daeyeo.kr/doc.jpg", FullName: "김대여"},
	})
	createApprovedRequest(t, testDB, 1, model.VerificationTypePayment, model.RequestPayload{
		Payment: &model.PaymentPayload{MethodKind: "card", Last4: "4242", BillingName: "김대여"},
	})

	completed := time.Now().Add(-400 * 24 * time.Hour)
	expired := completed.Add(backgroundCheckValidity)
	createApprovedRequest(t, testDB, 1, model.VerificationTypeBackgroundCheck, model.RequestPayload{
		BackgroundCheck: &model.BackgroundCheckPayload{
			CheckType:     model.CheckTypeStandard,
			Provider:      "cleargate",
			ConsentGiven:  true,
			OverallStatus: model.OverallStatusPass,
			RiskLevel:     model.RiskLevelLow,
			CompletedAt:   &completed,
			ExpiresAt:     &expired,
		},
	})

	// 아직 유효한 체크는 건드리지 않음
	validCompleted := time.Now().Add(-time.Hour)
	validExpires := validCompleted.Add(backgroundCheckValidity)
	fresh := createApprovedRequest(t, testDB, 2, model.VerificationTypeBackgroundCheck, model.RequestPayload{
		BackgroundCheck: &model.BackgroundCheckPayload{
			CheckType:     model.CheckTypeStandard,
			Provider:      "cleargate",
			ConsentGiven:  true,
			OverallStatus: model.OverallStatusPass,
			RiskLevel:     model.RiskLevelLow,
			CompletedAt:   &validCompleted,
			ExpiresAt:     &validExpires,
		},
	})

	// 만료 전에는 premium 등급
	_, err := svc.statusSvc.Recompute(1)
	require.NoError(t, err)

	var status model.UserVerificationStatus
	require.NoError(t, testDB.Where("user_id = ?", 1).First(&status).Error)
	assert.Equal(t, model.VerificationLevelPremium, status.VerificationLevel)

	count, err := svc.ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var requests []model.VerificationRequest
	require.NoError(t, testDB.
		Where("user_id = ? AND type = ?", 1, model.VerificationTypeBackgroundCheck).
		Find(&requests).Error)
	require.Len(t, requests, 1)
	assert.Equal(t, model.RequestStatusExpired, requests[0].Status)

	var untouched model.VerificationRequest
	require.NoError(t, testDB.First(&untouched, fresh.ID).Error)
	assert.Equal(t, model.RequestStatusApproved, untouched.Status)

	// 만료 후에는 premium 요건을 잃고 standard로 내려감
	require.NoError(t, testDB.Where("user_id = ?", 1).First(&status).Error)
	assert.False(t, status.Methods.BackgroundCheck)
	assert.Equal(t, model.VerificationLevelStandard, status.VerificationLevel)
	assert.Equal(t, 80, status.VerificationScore)
}

func TestBackgroundCheckService_PollPending_AppliesResult(t *testing.T) {
	svc, testDB, provider := setupBackgroundCheckTest(t)

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-poll")
	require.NoError(t, testDB.Model(request).
		Update("submitted_at", time.Now().Add(-2*time.Hour)).Error)

	provider.results["ext-poll"] = completeResult("ext-poll", clearOutcome())

	processed, err := svc.PollPending()
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusApproved, saved.Status)
}

func TestBackgroundCheckService_PollPending_TimesOutOldRequests(t *testing.T) {
	svc, testDB, provider := setupBackgroundCheckTest(t)
	provider.getErr = errors.New("provider down")

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-old")
	require.NoError(t, testDB.Model(request).
		Update("submitted_at", time.Now().Add(-200*time.Hour)).Error)

	processed, err := svc.PollPending()
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusRejected, saved.Status)
	assert.Contains(t, saved.RejectionReason, "지연")
}

func TestBackgroundCheckService_PollPending_SkipsRecentRequests(t *testing.T) {
	svc, testDB, provider := setupBackgroundCheckTest(t)

	request := createBackgroundCheckRequest(t, testDB, 1, model.RequestStatusInProgress, "ext-new")
	provider.results["ext-new"] = completeResult("ext-new", clearOutcome())

	// recheckAfter(1시간)가 지나지 않아 조회 대상이 아님
	processed, err := svc.PollPending()
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
}
