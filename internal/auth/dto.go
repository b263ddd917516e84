package auth

import (
	"time"

	"github.com/pmcafe/kiosk/pkg/models"
)

// LoginRequest captures the admin credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse is returned after a successful login. The backend token never
// leaves the server.
type LoginResponse struct {
	SessionID string           `json:"sessionId"`
	User      models.AdminUser `json:"user"`
	ExpiresAt time.Time        `json:"expiresAt"`
}
