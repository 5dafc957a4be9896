package service

import (
	"testing"
	"time"

	"github.com/daeyeo/daeyeo-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgeTypes(badges model.BadgeList) []model.BadgeType {
	types := make([]model.BadgeType, 0, len(badges))
	for _, b := range badges {
		types = append(types, b.Type)
	}
	return types
}

func TestDeriveBadges_AllMethods(t *testing.T) {
	cfg := DefaultBadgeConfig()
	now := time.Now()

	all := model.VerifiedMethods{
		Email: true, Phone: true, Identity: true,
		Payment: true, Address: true, BackgroundCheck: true,
	}

	badges := deriveBadges(cfg, all, nil, now)

	// 수단별 6개 + 프리미엄 1개
	require.Len(t, badges, 7)
	assert.Contains(t, badgeTypes(badges), model.BadgeEmailVerified)
	assert.Contains(t, badgeTypes(badges), model.BadgePhoneVerified)
	assert.Contains(t, badgeTypes(badges), model.BadgeIdentityVerified)
	assert.Contains(t, badgeTypes(badges), model.BadgePaymentVerified)
	assert.Contains(t, badgeTypes(badges), model.BadgeAddressVerified)
	assert.Contains(t, badgeTypes(badges), model.BadgeBackgroundChecked)
	assert.Contains(t, badgeTypes(badges), model.BadgePremiumVerified)
}

func TestDeriveBadges_PremiumOnlyWithBackgroundCheck(t *testing.T) {
	cfg := DefaultBadgeConfig()
	now := time.Now()

	methods := model.VerifiedMethods{
		Email: true, Phone: true, Identity: true, Payment: true,
	}

	badges := deriveBadges(cfg, methods, nil, now)

	assert.Len(t, badges, 4)
	assert.NotContains(t, badgeTypes(badges), model.BadgePremiumVerified)
}

func TestDeriveBadges_NoMethods(t *testing.T) {
	badges := deriveBadges(DefaultBadgeConfig(), model.VerifiedMethods{}, nil, time.Now())
	assert.Empty(t, badges)
}

func TestDeriveBadges_KeepsEarliestEarnedAt(t *testing.T) {
	cfg := DefaultBadgeConfig()
	earned := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := earned.Add(30 * 24 * time.Hour)

	existing := model.BadgeList{
		{Type: model.BadgeEmailVerified, Name: "이메일 인증", EarnedAt: earned},
	}

	badges := deriveBadges(cfg, model.VerifiedMethods{Email: true, Phone: true}, existing, now)

	require.Len(t, badges, 2)
	for _, b := range badges {
		switch b.Type {
		case model.BadgeEmailVerified:
			// 재계산돼도 처음 획득 시각 유지
			assert.True(t, b.EarnedAt.Equal(earned))
		case model.BadgePhoneVerified:
			assert.True(t, b.EarnedAt.Equal(now))
		}
	}
}

func TestDeriveBadges_DroppedMethodLosesBadge(t *testing.T) {
	cfg := DefaultBadgeConfig()
	now := time.Now()

	existing := deriveBadges(cfg, model.VerifiedMethods{
		Email: true, Phone: true, Identity: true, Payment: true, BackgroundCheck: true,
	}, nil, now.Add(-time.Hour))
	require.Len(t, existing, 6)

	// 백그라운드 체크 만료 후 재계산
	badges := deriveBadges(cfg, model.VerifiedMethods{
		Email: true, Phone: true, Identity: true, Payment: true,
	}, existing, now)

	assert.Len(t, badges, 4)
	assert.NotContains(t, badgeTypes(badges), model.BadgeBackgroundChecked)
	assert.NotContains(t, badgeTypes(badges), model.BadgePremiumVerified)
}
