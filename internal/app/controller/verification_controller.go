package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	apperrors "github.com/daeyeo/daeyeo-backend/internal/errors"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	"github.com/daeyeo/daeyeo-backend/internal/storage"
	"github.com/gin-gonic/gin"
)

// VerificationController 인증 요청 컨트롤러
type VerificationController struct {
	verificationSvc service.VerificationService
	statusSvc       service.StatusService
	storage         *storage.S3Storage
}

// NewVerificationController 인증 요청 컨트롤러 생성자
func NewVerificationController(
	verificationSvc service.VerificationService,
	statusSvc service.StatusService,
	s3 *storage.S3Storage,
) *VerificationController {
	return &VerificationController{
		verificationSvc: verificationSvc,
		statusSvc:       statusSvc,
		storage:         s3,
	}
}

// SubmitVerificationRequest 인증 요청 제출 바디
type SubmitVerificationRequest struct {
	Type    model.VerificationType `json:"type" binding:"required"`
	Payload model.RequestPayload   `json:"payload" binding:"required"`
}

// ConfirmCodeRequest 인증 코드 확인 바디
type ConfirmCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// PresignRequest 인증 서류 업로드 URL 요청 바디
type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size"`
}

// Submit godoc
// @Summary 인증 요청 제출
// @Description 인증 수단별 정보를 제출합니다. 휴대폰/이메일은 인증 코드가 발송됩니다
// @Tags verifications
// @Accept json
// @Produce json
// @Param request body SubmitVerificationRequest true "인증 요청"
// @Success 201 {object} gin.H{data=model.VerificationRequest}
// @Failure 400 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/verifications [post]
func (c *VerificationController) Submit(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	var req SubmitVerificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return
	}

	request, err := c.verificationSvc.Submit(userID, req.Type, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerificationType):
			apperrors.BadRequest(ctx, apperrors.VerificationInvalidType, "지원하지 않는 인증 수단입니다")
		case errors.Is(err, service.ErrInvalidPayload):
			apperrors.BadRequest(ctx, apperrors.VerificationInvalidPayload, "인증 정보가 올바르지 않습니다")
		case errors.Is(err, service.ErrConsentRequired):
			apperrors.BadRequest(ctx, apperrors.VerificationConsentRequired, "백그라운드 체크에는 본인 동의가 필요합니다")
		default:
			apperrors.InternalError(ctx, "인증 요청을 처리하는 중 오류가 발생했습니다")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"data": request,
	})
}

// ConfirmCode godoc
// @Summary 인증 코드 확인
// @Description 휴대폰/이메일로 발송된 인증 코드를 확인하고 요청을 승인합니다
// @Tags verifications
// @Accept json
// @Produce json
// @Param id path int true "인증 요청 ID"
// @Param request body ConfirmCodeRequest true "인증 코드"
// @Success 200 {object} gin.H{data=model.VerificationRequest}
// @Failure 400 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/verifications/{id}/confirm [post]
func (c *VerificationController) ConfirmCode(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 요청 ID입니다")
		return
	}

	var req ConfirmCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "인증 코드를 입력해주세요")
		return
	}

	request, err := c.verificationSvc.ConfirmCode(ctx.Request.Context(), userID, uint(requestID), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationNotFound):
			apperrors.NotFound(ctx, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotRequestOwner):
			apperrors.Forbidden(ctx, "")
		case errors.Is(err, service.ErrInvalidVerificationType):
			apperrors.BadRequest(ctx, apperrors.VerificationInvalidType, "코드 확인이 필요한 인증 수단이 아닙니다")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.Conflict(ctx, apperrors.VerificationAlreadyReviewed, "이미 처리된 인증 요청입니다")
		case errors.Is(err, service.ErrInvalidVerificationCode):
			apperrors.BadRequest(ctx, apperrors.AuthCodeInvalid, "인증 코드가 올바르지 않습니다")
		case errors.Is(err, service.ErrTooManyCodeAttempts):
			apperrors.RespondWithError(ctx, http.StatusTooManyRequests, apperrors.AuthTooManyAttempts, "인증 시도 횟수를 초과했습니다. 코드를 다시 발급받아주세요")
		default:
			apperrors.InternalError(ctx, "인증 코드를 확인하는 중 오류가 발생했습니다")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": request,
	})
}

// GetMyRequests godoc
// @Summary 내 인증 요청 이력 조회
// @Tags verifications
// @Produce json
// @Success 200 {object} gin.H{data=[]model.VerificationRequest}
// @Security BearerAuth
// @Router /api/v1/verifications [get]
func (c *VerificationController) GetMyRequests(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	requests, err := c.verificationSvc.GetUserRequests(userID)
	if err != nil {
		apperrors.InternalError(ctx, "인증 이력을 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": requests,
	})
}

// GetRequest godoc
// @Summary 인증 요청 단건 조회
// @Tags verifications
// @Produce json
// @Param id path int true "인증 요청 ID"
// @Success 200 {object} gin.H{data=model.VerificationRequest}
// @Failure 404 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/verifications/{id} [get]
func (c *VerificationController) GetRequest(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 요청 ID입니다")
		return
	}

	request, err := c.verificationSvc.GetRequest(userID, uint(requestID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationNotFound):
			apperrors.NotFound(ctx, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotRequestOwner):
			apperrors.Forbidden(ctx, "")
		default:
			apperrors.InternalError(ctx, "인증 요청을 조회하는 중 오류가 발생했습니다")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": request,
	})
}

// GetMyStatus godoc
// @Summary 내 인증 종합 상태 조회
// @Description 신뢰 등급, 점수, 뱃지를 포함한 종합 상태를 반환합니다
// @Tags verifications
// @Produce json
// @Success 200 {object} gin.H{data=model.UserVerificationStatus}
// @Security BearerAuth
// @Router /api/v1/verifications/status [get]
func (c *VerificationController) GetMyStatus(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	status, err := c.statusSvc.GetStatus(userID)
	if err != nil {
		apperrors.InternalError(ctx, "인증 상태를 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// GetUserStatus godoc
// @Summary 다른 사용자의 인증 종합 상태 조회
// @Description 거래 상대방의 신뢰 등급/뱃지를 확인할 때 사용합니다
// @Tags verifications
// @Produce json
// @Param user_id path int true "사용자 ID"
// @Success 200 {object} gin.H{data=model.UserVerificationStatus}
// @Router /api/v1/users/{user_id}/verification-status [get]
func (c *VerificationController) GetUserStatus(ctx *gin.Context) {
	targetID, err := strconv.ParseUint(ctx.Param("user_id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 사용자 ID입니다")
		return
	}

	status, err := c.statusSvc.GetStatus(uint(targetID))
	if err != nil {
		apperrors.InternalError(ctx, "인증 상태를 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// GetRequirements godoc
// @Summary 인증 요구사항 안내
// @Description 목표 등급 기준의 수단별 요구사항과 점수 가중치를 반환합니다
// @Tags verifications
// @Produce json
// @Param level query string false "목표 등급 (basic/standard/premium, 기본 premium)"
// @Success 200 {object} gin.H{data=[]service.MethodRequirement}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/verifications/requirements [get]
func (c *VerificationController) GetRequirements(ctx *gin.Context) {
	level := model.VerificationLevel(ctx.DefaultQuery("level", string(model.VerificationLevelPremium)))
	switch level {
	case model.VerificationLevelBasic, model.VerificationLevelStandard, model.VerificationLevelPremium:
	default:
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "지원하지 않는 등급입니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": c.verificationSvc.GetRequirements(level),
	})
}

// GetDocumentUploadURL godoc
// @Summary 인증 서류 업로드 URL 발급
// @Description 신분증/주소 증빙 업로드용 presigned URL을 발급합니다
// @Tags verifications
// @Accept json
// @Produce json
// @Param request body PresignRequest true "파일 정보"
// @Success 200 {object} gin.H{data=storage.PresignedURLResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/verifications/upload-url [post]
func (c *VerificationController) GetDocumentUploadURL(ctx *gin.Context) {
	if _, exists := middleware.GetUserID(ctx); !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	var req PresignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "파일 정보가 올바르지 않습니다")
		return
	}

	if err := c.storage.ValidateContentType(req.ContentType, storage.AllowedDocumentTypes); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidFormat, "허용되지 않는 파일 형식입니다")
		return
	}
	if req.FileSize > 0 {
		if err := c.storage.ValidateFileSize(req.FileSize, storage.MaxDocumentSize); err != nil {
			apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "파일 크기가 허용 범위를 초과했습니다")
			return
		}
	}

	presigned, err := c.storage.GenerateDocumentUploadURL(req.Filename, req.ContentType)
	if err != nil {
		apperrors.RespondWithError(ctx, http.StatusInternalServerError, apperrors.UploadFailed, "업로드 URL 발급에 실패했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": presigned,
	})
}
