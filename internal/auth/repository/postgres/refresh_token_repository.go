package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Store(ctx context.Context, rt *domain.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, ip_address, user_agent, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.Revoked,
		rt.IPAddress, rt.UserAgent, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, ip_address, user_agent, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, tokenHash)

	var rt domain.RefreshToken
	err := row.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked,
		&rt.IPAddress, &rt.UserAgent, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get refresh token by hash: %w", err)
	}

	return &rt, nil
}

// RevokeIfActive is a compare-and-set: of two concurrent rotations presenting
// the same token, only the first gets true back.
func (r *RefreshTokenRepository) RevokeIfActive(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *RefreshTokenRepository) RevokeAllForUserAgent(ctx context.Context, userID, userAgent, exceptID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE user_id = $1 AND user_agent = $2 AND revoked = FALSE AND id <> $3
	`, userID, userAgent, exceptID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user agent: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) RevokeAllForIP(ctx context.Context, userID, ip, exceptID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE user_id = $1 AND ip_address = $2 AND revoked = FALSE AND id <> $3
	`, userID, ip, exceptID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by ip: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return nil
}
