package model

// UserRole 사용자 권한 (계정 관리는 별도 서비스, 여기서는 JWT claim으로만 전달됨)
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)
