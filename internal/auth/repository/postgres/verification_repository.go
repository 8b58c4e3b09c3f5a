package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type VerificationRepository struct {
	db DB
}

func NewVerificationRepository(db DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Insert(ctx context.Context, code *domain.VerificationCode) error {
	query := `INSERT INTO verification_codes
		(id, actor_type, channel_type, subject, code_hash, attempts, expires_at, used, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		code.ID, code.ActorType, code.ChannelType, code.Subject, code.CodeHash,
		code.Attempts, code.ExpiresAt, code.Used, code.IPAddress, code.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert verification code: %w", err)
	}

	return nil
}

// GetLatestActive returns the most recently created unused, unexpired code for
// the (subject, actor, channel) triple, or nil when none exists.
func (r *VerificationRepository) GetLatestActive(ctx context.Context, subject, actorType,
	channelType string, now time.Time) (*domain.VerificationCode, error) {
	query := `
		SELECT id, actor_type, channel_type, subject, code_hash, attempts, expires_at, used, ip_address, created_at
		FROM verification_codes
		WHERE subject = $1 AND actor_type = $2 AND channel_type = $3
		  AND used = FALSE AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, subject, actorType, channelType, now)

	var code domain.VerificationCode
	err := row.Scan(&code.ID, &code.ActorType, &code.ChannelType, &code.Subject, &code.CodeHash,
		&code.Attempts, &code.ExpiresAt, &code.Used, &code.IPAddress, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get latest verification code: %w", err)
	}

	return &code, nil
}

func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts;
	`
	var attempts int
	if err := r.db.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to increment verification attempts: %w", err)
	}

	return attempts, nil
}

// MarkUsed is a compare-and-set: under two concurrent validations only one
// caller observes true.
func (r *VerificationRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE verification_codes SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark verification code used: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, actorType, channelType string, before time.Time) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM verification_codes
		WHERE actor_type = $1 AND channel_type = $2 AND expires_at < $3
	`, actorType, channelType, before)
	if err != nil {
		return fmt.Errorf("failed to delete expired verification codes: %w", err)
	}

	return nil
}
