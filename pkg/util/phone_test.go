package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	assert.Equal(t, "01012345678", NormalizePhoneNumber("010-1234-5678"))
	assert.Equal(t, "01012345678", NormalizePhoneNumber(" 010 1234 5678 "))
	assert.Equal(t, "01012345678", NormalizePhoneNumber("01012345678"))
	assert.Equal(t, "", NormalizePhoneNumber(""))
}

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, ValidPhoneNumber("010-1234-5678"))
	assert.True(t, ValidPhoneNumber("01012345678"))
	assert.True(t, ValidPhoneNumber("0161234567")) // 10자리 구번호

	assert.False(t, ValidPhoneNumber("02-123-4567")) // 지역번호
	assert.False(t, ValidPhoneNumber("010-1234"))
	assert.False(t, ValidPhoneNumber("010123456789"))
	assert.False(t, ValidPhoneNumber(""))
}
