package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TenantID     string    `json:"tenantId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DefaultFullName deriva un nombre a partir de la parte local del email.
func DefaultFullName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
