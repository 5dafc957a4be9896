package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized   = "AUTH_UNAUTHORIZED"    // 로그인 필요
	AuthTokenExpired   = "AUTH_TOKEN_EXPIRED"   // 토큰 만료
	AuthTokenInvalid   = "AUTH_TOKEN_INVALID"   // 잘못된 토큰
	AuthCodeInvalid    = "AUTH_CODE_INVALID"    // 잘못된 인증코드
	AuthCodeExpired    = "AUTH_CODE_EXPIRED"    // 인증코드 만료
	AuthTooManyAttempts = "AUTH_TOO_MANY_ATTEMPTS" // 인증코드 시도 횟수 초과

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // 접근 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // 관리자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // 잘못된 ID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationRequired      = "VALIDATION_REQUIRED"       // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"       // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"  // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"        // 충돌

	// ==================== 인증 요청 (VERIFICATION_) ====================
	VerificationNotFound           = "VERIFICATION_NOT_FOUND"            // 인증 요청 없음
	VerificationInvalidType        = "VERIFICATION_INVALID_TYPE"         // 잘못된 인증 수단
	VerificationInvalidPayload     = "VERIFICATION_INVALID_PAYLOAD"      // 잘못된 인증 정보
	VerificationConsentRequired    = "VERIFICATION_CONSENT_REQUIRED"     // 백그라운드 체크 동의 필요
	VerificationInvalidTransition  = "VERIFICATION_INVALID_TRANSITION"   // 허용되지 않는 상태 전이
	VerificationAlreadyReviewed    = "VERIFICATION_ALREADY_REVIEWED"     // 이미 처리된 요청
	VerificationReasonRequired     = "VERIFICATION_REASON_REQUIRED"      // 반려 사유 필요
	VerificationNoPendingChallenge = "VERIFICATION_NO_PENDING_CHALLENGE" // 대기 중인 인증 코드 없음

	// ==================== 외부 제공업체 (PROVIDER_) ====================
	ProviderUnavailable      = "PROVIDER_UNAVAILABLE"       // 제공업체 연결 실패
	ProviderInvalidResult    = "PROVIDER_INVALID_RESULT"    // 제공업체 응답 형식 오류
	ProviderInvalidSignature = "PROVIDER_INVALID_SIGNATURE" // 웹훅 서명 검증 실패

	// ==================== 알림 (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND" // 알림 없음

	// ==================== 업로드 (UPLOAD_) ====================
	UploadFailed = "UPLOAD_FAILED" // 업로드 실패

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
