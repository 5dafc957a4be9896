package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	apperrors "github.com/daeyeo/daeyeo-backend/internal/errors"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	"github.com/daeyeo/daeyeo-backend/pkg/bgcheck"
	"github.com/gin-gonic/gin"
)

// 제공업체가 보내는 HMAC-SHA256 서명 헤더
const signatureHeader = "X-Webhook-Signature"

// WebhookVerifier 웹훅 본문 서명 검증기
type WebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) error
}

// WebhookController 외부 제공업체 웹훅 컨트롤러
type WebhookController struct {
	bgSvc    service.BackgroundCheckService
	verifier WebhookVerifier
}

// NewWebhookController 웹훅 컨트롤러 생성자
func NewWebhookController(bgSvc service.BackgroundCheckService, verifier WebhookVerifier) *WebhookController {
	return &WebhookController{
		bgSvc:    bgSvc,
		verifier: verifier,
	}
}

// HandleBackgroundCheckResult godoc
// @Summary 백그라운드 체크 결과 웹훅
// @Description 제공업체가 체크 완료 시 호출합니다. HMAC 서명이 검증됩니다
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "본문 HMAC-SHA256 서명 (base64)"
// @Success 200 {object} gin.H
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /webhooks/background-checks [post]
func (c *WebhookController) HandleBackgroundCheckResult(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ProviderInvalidResult, "요청 본문을 읽을 수 없습니다")
		return
	}

	signature := ctx.GetHeader(signatureHeader)
	if err := c.verifier.VerifyWebhookSignature(body, signature); err != nil {
		log.Warn("Webhook signature verification failed", map[string]interface{}{
			"ip": ctx.ClientIP(),
		})
		apperrors.RespondWithError(ctx, http.StatusUnauthorized, apperrors.ProviderInvalidSignature, "서명 검증에 실패했습니다")
		return
	}

	var result bgcheck.ResultResponse
	if err := json.Unmarshal(body, &result); err != nil {
		apperrors.BadRequest(ctx, apperrors.ProviderInvalidResult, "결과 형식이 올바르지 않습니다")
		return
	}

	if err := c.bgSvc.OnProviderResult(&result); err != nil {
		if errors.Is(err, service.ErrUnknownExternalID) {
			// 알 수 없는 external_id는 재전송해도 소용없으므로 404로 응답
			apperrors.NotFound(ctx, apperrors.VerificationNotFound, "해당 체크를 찾을 수 없습니다")
			return
		}
		log.Error("Failed to process background check webhook", err, map[string]interface{}{
			"external_id": result.ExternalID,
		})
		// 5xx 응답이면 제공업체가 재시도함
		apperrors.InternalError(ctx, "")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"received": true,
	})
}
