package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/internal/db"
	"github.com/daeyeo/daeyeo-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeCodeStore 메모리 기반 인증 코드 저장소
type fakeCodeStore struct {
	codes    map[string]string
	attempts map[string]int
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{
		codes:    make(map[string]string),
		attempts: make(map[string]int),
	}
}

func (f *fakeCodeStore) key(kind string, userID uint) string {
	return fmt.Sprintf("%s:%d", kind, userID)
}

func (f *fakeCodeStore) Store(_ context.Context, kind string, userID uint, code string, _ time.Duration) error {
	f.codes[f.key(kind, userID)] = code
	f.attempts[f.key(kind, userID)] = 0
	return nil
}

func (f *fakeCodeStore) Check(_ context.Context, kind string, userID uint, code string, maxAttempts int) error {
	key := f.key(kind, userID)
	f.attempts[key]++
	if maxAttempts > 0 && f.attempts[key] > maxAttempts {
		return redis.ErrTooManyAttempts
	}
	stored, ok := f.codes[key]
	if !ok {
		return redis.ErrCodeNotFound
	}
	if stored != code {
		return redis.ErrCodeMismatch
	}
	delete(f.codes, key)
	return nil
}

// fakeSender 발송된 코드를 기록만 함
type fakeSender struct {
	smsSent   []string
	emailSent []string
}

func (f *fakeSender) SendSMSCode(phoneNumber, _ string) error {
	f.smsSent = append(f.smsSent, phoneNumber)
	return nil
}

func (f *fakeSender) SendEmailCode(emailAddress, _ string) error {
	f.emailSent = append(f.emailSent, emailAddress)
	return nil
}

// fakeSubmitter 제공업체 접수 호출을 기록만 함
type fakeSubmitter struct {
	submitted []uint
}

func (f *fakeSubmitter) SubmitToProvider(request *model.VerificationRequest) {
	f.submitted = append(f.submitted, request.ID)
}

func setupVerificationServiceTest(t *testing.T) (VerificationService, *gorm.DB, *fakeCodeStore, *fakeSender, *fakeSubmitter) {
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

	codes := newFakeCodeStore()
	sender := &fakeSender{}
	submitter := &fakeSubmitter{}

	svc := NewVerificationService(requestRepo, statusSvc, notificationSvc,
		codes, sender, submitter, DefaultScoringConfig(), DefaultRequirementsConfig(),
		5*time.Minute, 5)

	return svc, testDB, codes, sender, submitter
}

func TestVerificationService_Submit_Phone(t *testing.T) {
	svc, testDB, codes, sender, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "010-1234-5678"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusPending, request.Status)
	// 번호는 숫자만 남도록 정규화됨
	assert.Equal(t, "01012345678", request.Payload.Phone.PhoneNumber)
	assert.Len(t, sender.smsSent, 1)
	assert.NotEmpty(t, codes.codes["phone:1"])

	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.VerificationTypePhone, saved.Type)
}

func TestVerificationService_Submit_Email(t *testing.T) {
	svc, _, codes, sender, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "renter@daeyeo.kr"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusPending, request.Status)
	assert.Equal(t, []string{"renter@daeyeo.kr"}, sender.emailSent)
	assert.NotEmpty(t, codes.codes["email:1"])
}

func TestVerificationService_Submit_InvalidType(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationType("fingerprint"), model.RequestPayload{})
	assert.ErrorIs(t, err, ErrInvalidVerificationType)
}

func TestVerificationService_Submit_PayloadTypeMismatch(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	// 이메일 타입인데 휴대폰 정보가 들어옴
	_, err := svc.Submit(1, model.VerificationTypeEmail, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestVerificationService_Submit_InvalidPhone(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "02-123-4567"},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestVerificationService_Submit_InvalidEmail(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "not-an-email"},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestVerificationService_Submit_IdentityRequiresDocument(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationTypeIdentity, model.RequestPayload{
		Identity: &model.IdentityPayload{DocumentType: "passport", FullName: "김대여"},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestVerificationService_Submit_BackgroundCheckRequiresConsent(t *testing.T) {
	svc, _, _, _, submitter := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationTypeBackgroundCheck, model.RequestPayload{
		BackgroundCheck: &model.BackgroundCheckPayload{
			CheckType:    model.CheckTypeStandard,
			ConsentGiven: false,
		},
	})
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Empty(t, submitter.submitted)
}

func TestVerificationService_Submit_BackgroundCheckHandsOff(t *testing.T) {
	svc, testDB, _, _, submitter := setupVerificationServiceTest(t)

	consentAt := time.Now()
	request, err := svc.Submit(1, model.VerificationTypeBackgroundCheck, model.RequestPayload{
		BackgroundCheck: &model.BackgroundCheckPayload{
			CheckType:        model.CheckTypeStandard,
			ConsentGiven:     true,
			ConsentTimestamp: &consentAt,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []uint{request.ID}, submitter.submitted)
	assert.Equal(t, model.OverallStatusPending, request.Payload.BackgroundCheck.OverallStatus)

	// 제공업체 접수를 기다리지 않고 바로 처리 중 상태로 저장됨
	var saved model.VerificationRequest
	require.NoError(t, testDB.First(&saved, request.ID).Error)
	assert.Equal(t, model.RequestStatusInProgress, saved.Status)
}

func TestVerificationService_ConfirmCode_Success(t *testing.T) {
	svc, testDB, codes, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)

	code := codes.codes["phone:1"]
	confirmed, err := svc.ConfirmCode(context.Background(), 1, request.ID, code)
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusApproved, confirmed.Status)
	require.NotNil(t, confirmed.ReviewedAt)
	assert.Nil(t, confirmed.ReviewedBy) // 자동 처리는 검토자 없음

	// 종합 상태가 재계산됨
	var status model.UserVerificationStatus
	require.NoError(t, testDB.Where("user_id = ?", 1).First(&status).Error)
	assert.True(t, status.Methods.Phone)
	assert.Equal(t, 20, status.VerificationScore)
}

func TestVerificationService_ConfirmCode_WrongCode(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)

	_, err = svc.ConfirmCode(context.Background(), 1, request.ID, "000000")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestVerificationService_ConfirmCode_TooManyAttempts(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = svc.ConfirmCode(context.Background(), 1, request.ID, "000000")
		assert.ErrorIs(t, err, ErrInvalidVerificationCode)
	}

	_, err = svc.ConfirmCode(context.Background(), 1, request.ID, "000000")
	assert.ErrorIs(t, err, ErrTooManyCodeAttempts)
}

func TestVerificationService_ConfirmCode_NotOwner(t *testing.T) {
	svc, _, codes, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)

	_, err = svc.ConfirmCode(context.Background(), 2, request.ID, codes.codes["phone:1"])
	assert.ErrorIs(t, err, ErrNotRequestOwner)
}

func TestVerificationService_ConfirmCode_AlreadyApproved(t *testing.T) {
	svc, _, codes, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)

	code := codes.codes["phone:1"]
	_, err = svc.ConfirmCode(context.Background(), 1, request.ID, code)
	require.NoError(t, err)

	_, err = svc.ConfirmCode(context.Background(), 1, request.ID, code)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVerificationService_ConfirmCode_NotCodeChallengeType(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	request, err := svc.Submit(1, model.VerificationTypeAddress, model.RequestPayload{
		Address: &model.AddressPayload{
			Address1:         "테스트로 1",
			City:             "서울",
			PostalCode:       "06000",
			ProofDocumentURL: "https://cdn.daeyeo.kr/proof.jpg",
		},
	})
	require.NoError(t, err)

	_, err = svc.ConfirmCode(context.Background(), 1, request.ID, "123456")
	assert.ErrorIs(t, err, ErrInvalidVerificationType)
}

func TestVerificationService_GetUserRequests(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	_, err := svc.Submit(1, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "renter@daeyeo.kr"},
	})
	require.NoError(t, err)
	_, err = svc.Submit(1, model.VerificationTypePhone, model.RequestPayload{
		Phone: &model.PhonePayload{PhoneNumber: "01012345678"},
	})
	require.NoError(t, err)
	_, err = svc.Submit(2, model.VerificationTypeEmail, model.RequestPayload{
		Email: &model.EmailPayload{EmailAddress: "other@daeyeo.kr"},
	})
	require.NoError(t, err)

	requests, err := svc.GetUserRequests(1)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestVerificationService_GetRequirements(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	requirements := svc.GetRequirements(model.VerificationLevelPremium)
	require.Len(t, requirements, 6)

	byType := make(map[model.VerificationType]MethodRequirement)
	for _, r := range requirements {
		byType[r.Type] = r
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Description)
		assert.NotEmpty(t, r.EstimatedTimeLabel)
		assert.NotEmpty(t, r.Benefits)
	}

	assert.Equal(t, 30, byType[model.VerificationTypeIdentity].Weight)
	assert.Equal(t, model.VerificationLevelPremium, byType[model.VerificationTypeBackgroundCheck].RequiredForLevel)
	assert.True(t, byType[model.VerificationTypePhone].AutoProcessed)
	assert.False(t, byType[model.VerificationTypeIdentity].AutoProcessed)

	// premium 목표에는 주소를 제외한 모든 수단이 필요
	assert.True(t, byType[model.VerificationTypeBackgroundCheck].Required)
	assert.True(t, byType[model.VerificationTypeIdentity].Required)
	assert.False(t, byType[model.VerificationTypeAddress].Required)
	assert.Empty(t, byType[model.VerificationTypeAddress].RequiredForLevel)
}

func TestVerificationService_GetRequirements_ByLevel(t *testing.T) {
	svc, _, _, _, _ := setupVerificationServiceTest(t)

	requiredTypes := func(level model.VerificationLevel) map[model.VerificationType]bool {
		types := make(map[model.VerificationType]bool)
		for _, r := range svc.GetRequirements(level) {
			if r.Required {
				types[r.Type] = true
			}
		}
		return types
	}

	// basic 목표에는 이메일과 휴대폰만 필요
	basic := requiredTypes(model.VerificationLevelBasic)
	assert.Equal(t, map[model.VerificationType]bool{
		model.VerificationTypeEmail: true,
		model.VerificationTypePhone: true,
	}, basic)

	// standard 목표에는 신분증과 결제수단이 추가됨
	standard := requiredTypes(model.VerificationLevelStandard)
	assert.True(t, standard[model.VerificationTypeIdentity])
	assert.True(t, standard[model.VerificationTypePayment])
	assert.False(t, standard[model.VerificationTypeBackgroundCheck])
	assert.False(t, standard[model.VerificationTypeAddress])
}
