package domain

import "time"

// VerificationCode is one outstanding one-time-code challenge. Only the
// bcrypt hash of the code is stored; validation always picks the most
// recently created unused, unexpired row for a (channel, subject) pair.
type VerificationCode struct {
	ID          string
	ActorType   string
	ChannelType string
	Subject     string
	CodeHash    string
	Attempts    int
	ExpiresAt   time.Time
	Used        bool
	IPAddress   string
	CreatedAt   time.Time
}

// RateLimitBucket counts issuance requests for an IP within an hour-aligned
// window. One row per (actor, channel, ip, window_start).
type RateLimitBucket struct {
	ActorType    string
	ChannelType  string
	IPAddress    string
	RequestCount int
	WindowStart  time.Time
}

// RefreshToken is one long-lived credential exchangeable for access tokens.
// TokenHash is a SHA-256 digest of the random secret; the plaintext secret is
// returned to the caller exactly once, at issuance.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
