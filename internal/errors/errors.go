package errors

import (
	"errors"
)

var (
	ErrRateLimited         = errors.New("too many verification requests")
	ErrCodeNotFound        = errors.New("invalid or expired code")
	ErrCodeIncorrect       = errors.New("incorrect code")
	ErrAttemptsExceeded    = errors.New("verification attempts exceeded")
	ErrDeliveryFailed      = errors.New("failed to deliver verification code")
	ErrForbidden           = errors.New("forbidden")
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
)
