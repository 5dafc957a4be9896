package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	apperrors "github.com/daeyeo/daeyeo-backend/internal/errors"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AdminVerificationController 관리자 인증 검토 컨트롤러
type AdminVerificationController struct {
	reviewSvc service.AdminReviewService
}

// NewAdminVerificationController 관리자 인증 검토 컨트롤러 생성자
func NewAdminVerificationController(reviewSvc service.AdminReviewService) *AdminVerificationController {
	return &AdminVerificationController{
		reviewSvc: reviewSvc,
	}
}

// ApproveRequest 승인 바디
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// RejectRequest 반려 바디
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListRequests godoc
// @Summary 인증 요청 목록 조회 (관리자)
// @Tags admin
// @Produce json
// @Param status query string false "상태 필터 (pending, in_progress, approved, rejected, expired)"
// @Param type query string false "수단 필터"
// @Success 200 {object} gin.H{data=[]model.VerificationRequest}
// @Security BearerAuth
// @Router /api/v1/admin/verifications [get]
func (c *AdminVerificationController) ListRequests(ctx *gin.Context) {
	requests, err := c.reviewSvc.ListRequests(ctx.Query("status"), ctx.Query("type"))
	if err != nil {
		apperrors.InternalError(ctx, "인증 요청 목록을 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":  requests,
		"total": len(requests),
	})
}

// Approve godoc
// @Summary 인증 요청 승인 (관리자)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "인증 요청 ID"
// @Param request body ApproveRequest false "검토 메모"
// @Success 200 {object} gin.H{data=model.VerificationRequest}
// @Failure 409 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/verifications/{id}/approve [post]
func (c *AdminVerificationController) Approve(ctx *gin.Context) {
	adminID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 요청 ID입니다")
		return
	}

	var req ApproveRequest
	_ = ctx.ShouldBindJSON(&req) // 메모는 선택 사항

	request, err := c.reviewSvc.Approve(uint(requestID), adminID, req.Notes)
	if err != nil {
		c.respondReviewError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": request,
	})
}

// Reject godoc
// @Summary 인증 요청 반려 (관리자)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "인증 요청 ID"
// @Param request body RejectRequest true "반려 사유"
// @Success 200 {object} gin.H{data=model.VerificationRequest}
// @Failure 409 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/verifications/{id}/reject [post]
func (c *AdminVerificationController) Reject(ctx *gin.Context) {
	adminID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "")
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 요청 ID입니다")
		return
	}

	var req RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.VerificationReasonRequired, "반려 사유를 입력해주세요")
		return
	}

	request, err := c.reviewSvc.Reject(uint(requestID), adminID, req.Reason)
	if err != nil {
		c.respondReviewError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": request,
	})
}

// Export godoc
// @Summary 인증 요청 XLSX 내보내기 (관리자)
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "상태 필터"
// @Param type query string false "수단 필터"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /api/v1/admin/verifications/export [get]
func (c *AdminVerificationController) Export(ctx *gin.Context) {
	data, err := c.reviewSvc.ExportRequests(ctx.Query("status"), ctx.Query("type"))
	if err != nil {
		apperrors.InternalError(ctx, "내보내기에 실패했습니다")
		return
	}

	filename := fmt.Sprintf("verifications_%s.xlsx", time.Now().Format("20060102_150405"))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (c *AdminVerificationController) respondReviewError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVerificationNotFound):
		apperrors.NotFound(ctx, apperrors.VerificationNotFound, "인증 요청을 찾을 수 없습니다")
	case errors.Is(err, service.ErrAlreadyReviewed):
		apperrors.Conflict(ctx, apperrors.VerificationAlreadyReviewed, "이미 처리된 인증 요청입니다")
	case errors.Is(err, service.ErrReasonRequired):
		apperrors.BadRequest(ctx, apperrors.VerificationReasonRequired, "반려 사유를 입력해주세요")
	case errors.Is(err, service.ErrCannotReviewType):
		apperrors.BadRequest(ctx, apperrors.VerificationInvalidType, "자동 처리되는 인증 수단입니다")
	default:
		apperrors.InternalError(ctx, "인증 요청을 처리하는 중 오류가 발생했습니다")
	}
}
