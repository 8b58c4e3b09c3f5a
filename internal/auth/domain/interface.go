package domain

import (
	"context"
	"time"
)

type VerificationRepository interface {
	Insert(ctx context.Context, code *VerificationCode) error
	GetLatestActive(ctx context.Context, subject, actorType, channelType string, now time.Time) (*VerificationCode, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	// MarkUsed flips used=true only if the row is still unused and reports
	// whether this call performed the flip.
	MarkUsed(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, actorType, channelType string, before time.Time) error
}

type RateLimitRepository interface {
	CountSince(ctx context.Context, ip, actorType, channelType string, since time.Time) (int, error)
	// Increment upserts the bucket for the given window start in a single
	// atomic statement.
	Increment(ctx context.Context, ip, actorType, channelType string, windowStart time.Time) error
	PurgeBefore(ctx context.Context, before time.Time) error
}

type RefreshTokenRepository interface {
	Store(ctx context.Context, token *RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeIfActive sets revoked=true only if the row is not yet revoked and
	// reports whether this call performed the revocation.
	RevokeIfActive(ctx context.Context, id string) (bool, error)
	RevokeAllForUserAgent(ctx context.Context, userID, userAgent, exceptID string) error
	RevokeAllForIP(ctx context.Context, userID, ip, exceptID string) error
	DeleteExpired(ctx context.Context, before time.Time) error
}

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByPhone(ctx context.Context, phone string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
}

// Messenger delivers a plaintext one-time code out of band. Implementations
// exist per channel; failures surface as ErrDeliveryFailed at the service
// boundary.
type Messenger interface {
	Send(ctx context.Context, channelType, destination, body string) error
}
