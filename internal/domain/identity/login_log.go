package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginLog records a successful login
type LoginLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	IP        string
	UserAgent string
	LoggedAt  time.Time
}

// NewLoginLog creates a login record stamped now
func NewLoginLog(userID uuid.UUID, ip, userAgent string) *LoginLog {
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}
	return &LoginLog{
		ID:        uuid.New(),
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}
}
