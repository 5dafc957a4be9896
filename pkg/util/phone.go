package util

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhoneNumber strips formatting and returns digits only (예: 01012345678)
func NormalizePhoneNumber(phone string) string {
	return nonDigits.ReplaceAllString(strings.TrimSpace(phone), "")
}

// ValidPhoneNumber 휴대폰 번호 형식 검사 (010으로 시작하는 10~11자리)
func ValidPhoneNumber(phone string) bool {
	normalized := NormalizePhoneNumber(phone)
	if len(normalized) < 10 || len(normalized) > 11 {
		return false
	}
	return strings.HasPrefix(normalized, "01")
}
