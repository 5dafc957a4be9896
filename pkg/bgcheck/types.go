package bgcheck

import "time"

// SubjectIdentity 조회 대상자 정보
type SubjectIdentity struct {
	FullName     string `json:"full_name"`
	BirthDate    string `json:"birth_date,omitempty"` // YYYYMMDD
	PhoneNumber  string `json:"phone_number,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

// ConsentProof 대상자 동의 증빙
type ConsentProof struct {
	Given     bool       `json:"given"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SubmitRequest 체크 요청
// ExternalID is the caller-assigned correlation token echoed back on results
type SubmitRequest struct {
	ExternalID string          `json:"external_id"`
	CheckType  string          `json:"check_type"` // basic, standard, comprehensive
	Subject    SubjectIdentity `json:"subject"`
	Consent    ConsentProof    `json:"consent"`
}

// SubmitResponse 체크 접수 응답
type SubmitResponse struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"` // accepted, processing
}

// SubResult 세부 체크 한 건의 결과
type SubResult struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// CheckOutcome 제공업체가 전달하는 세부 결과 묶음
type CheckOutcome struct {
	CriminalHistory      SubResult  `json:"criminal_history"`
	SexOffenderRegistry  SubResult  `json:"sex_offender_registry"`
	GlobalWatchlist      SubResult  `json:"global_watchlist"`
	IdentityVerification SubResult  `json:"identity_verification"`
	MotorVehicleRecords  *SubResult `json:"motor_vehicle_records,omitempty"`
}

// ResultResponse 체크 결과 응답 (poll 또는 webhook 본문)
type ResultResponse struct {
	ExternalID  string        `json:"external_id"`
	Status      string        `json:"status"` // processing, complete
	Results     *CheckOutcome `json:"results,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// ErrorResponse 제공업체 에러 응답
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
