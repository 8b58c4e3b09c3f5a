package dto

import "time"

type RequestCodeInput struct {
	Subject   string `json:"subject"`
	Channel   string `json:"channel"`
	IPAddress string `json:"-"`
}

type RequestCodeOutput struct {
	ExpiresAt time.Time `json:"expires_at"`
}
