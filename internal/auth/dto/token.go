package dto

import (
	"time"
)

type TokenResponse struct {
	AccessToken      string         `json:"access_token"`
	AccessExpiresAt  time.Time      `json:"access_expires_at"`
	RefreshToken     string         `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time     `json:"refresh_expires_at,omitempty"`
	Account          *AccountOutput `json:"account,omitempty"`
}

type AccountOutput struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}
