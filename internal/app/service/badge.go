package service

import (
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
)

// BadgeDefinition 뱃지 하나의 표시 정보
type BadgeDefinition struct {
	Type        model.BadgeType
	Name        string
	Description string
	Icon        string
}

// BadgeConfig 수단별 뱃지 테이블과 등급 뱃지 정의
type BadgeConfig struct {
	MethodBadges map[model.VerificationType]BadgeDefinition
	PremiumBadge BadgeDefinition
}

// DefaultBadgeConfig returns the standard badge table
func DefaultBadgeConfig() BadgeConfig {
	return BadgeConfig{
		MethodBadges: map[model.VerificationType]BadgeDefinition{
			model.VerificationTypeEmail: {
				Type:        model.BadgeEmailVerified,
				Name:        "이메일 인증",
				Description: "이메일 주소 인증을 완료했습니다",
				Icon:        "mail",
			},
			model.VerificationTypePhone: {
				Type:        model.BadgePhoneVerified,
				Name:        "휴대폰 인증",
				Description: "휴대폰 번호 인증을 완료했습니다",
				Icon:        "phone",
			},
			model.VerificationTypeIdentity: {
				Type:        model.BadgeIdentityVerified,
				Name:        "신분증 인증",
				Description: "신분증 확인을 완료했습니다",
				Icon:        "id-card",
			},
			model.VerificationTypePayment: {
				Type:        model.BadgePaymentVerified,
				Name:        "결제수단 인증",
				Description: "결제수단 등록을 완료했습니다",
				Icon:        "credit-card",
			},
			model.VerificationTypeAddress: {
				Type:        model.BadgeAddressVerified,
				Name:        "주소 인증",
				Description: "거주지 주소 확인을 완료했습니다",
				Icon:        "map-pin",
			},
			model.VerificationTypeBackgroundCheck: {
				Type:        model.BadgeBackgroundChecked,
				Name:        "백그라운드 체크",
				Description: "백그라운드 체크를 통과했습니다",
				Icon:        "shield-check",
			},
		},
		PremiumBadge: BadgeDefinition{
			Type:        model.BadgePremiumVerified,
			Name:        "프리미엄 인증",
			Description: "모든 핵심 인증을 완료한 회원입니다",
			Icon:        "award",
		},
	}
}

// deriveBadges builds the badge list from verified method flags.
// 백그라운드 체크 통과 시 background_checked에 더해 premium_verified도 부여한다.
// 기존 목록에 같은 뱃지가 있으면 처음 획득한 시각을 유지한다
func deriveBadges(cfg BadgeConfig, methods model.VerifiedMethods, existing model.BadgeList, now time.Time) model.BadgeList {
	earnedAt := make(map[model.BadgeType]time.Time, len(existing))
	for _, b := range existing {
		if prev, ok := earnedAt[b.Type]; !ok || b.EarnedAt.Before(prev) {
			earnedAt[b.Type] = b.EarnedAt
		}
	}

	appendBadge := func(list model.BadgeList, def BadgeDefinition) model.BadgeList {
		at := now
		if prev, ok := earnedAt[def.Type]; ok {
			at = prev
		}
		return append(list, model.VerificationBadge{
			Type:        def.Type,
			Name:        def.Name,
			Description: def.Description,
			EarnedAt:    at,
			Icon:        def.Icon,
		})
	}

	badges := model.BadgeList{}
	for _, t := range model.AllVerificationTypes {
		if !methods.IsVerified(t) {
			continue
		}
		def, ok := cfg.MethodBadges[t]
		if !ok {
			continue
		}
		badges = appendBadge(badges, def)
	}

	if methods.BackgroundCheck {
		badges = appendBadge(badges, cfg.PremiumBadge)
	}

	return badges
}
