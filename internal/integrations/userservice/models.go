package userservice

import "strings"

// Роли пользователей UserService
const (
	RoleMentor   = "MENTOR"
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User модель пользователя из UserService
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IsMentor проверяет роль ментора (регистр не важен)
func (u *User) IsMentor() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleMentor)
}

// ErrorResponse модель ошибки от UserService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
