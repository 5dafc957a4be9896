package service

import "github.com/daeyeo/daeyeo-backend/internal/app/model"

// ScoringConfig 수단별 점수 가중치와 등급 요건
type ScoringConfig struct {
	Weights map[model.VerificationType]int
	// MaxScore caps the displayed score. 가중치 합이 100을 넘으므로 상한을 둔다
	MaxScore int
}

// DefaultScoringConfig returns the standard weight table
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: map[model.VerificationType]int{
			model.VerificationTypeEmail:           10,
			model.VerificationTypePhone:           20,
			model.VerificationTypeIdentity:        30,
			model.VerificationTypePayment:         20,
			model.VerificationTypeAddress:         10,
			model.VerificationTypeBackgroundCheck: 30,
		},
		MaxScore: 100,
	}
}

// computeScore sums the weights of verified methods, capped at MaxScore
func computeScore(cfg ScoringConfig, methods model.VerifiedMethods) int {
	score := 0
	for _, t := range model.AllVerificationTypes {
		if methods.IsVerified(t) {
			score += cfg.Weights[t]
		}
	}
	if cfg.MaxScore > 0 && score > cfg.MaxScore {
		score = cfg.MaxScore
	}
	return score
}

// computeLevel derives the trust level from verified method flags.
// 각 등급은 하위 등급 요건을 포함한다. 주소 인증은 등급에 영향 없음
func computeLevel(methods model.VerifiedMethods) model.VerificationLevel {
	basic := methods.Email && methods.Phone
	standard := basic && methods.Identity && methods.Payment
	premium := standard && methods.BackgroundCheck

	switch {
	case premium:
		return model.VerificationLevelPremium
	case standard:
		return model.VerificationLevelStandard
	case basic:
		return model.VerificationLevelBasic
	default:
		return model.VerificationLevelNone
	}
}
