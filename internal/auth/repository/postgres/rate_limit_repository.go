package postgres

import (
	"context"
	"fmt"
	"time"
)

type RateLimitRepository struct {
	db DB
}

func NewRateLimitRepository(db DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

func (r *RateLimitRepository) CountSince(ctx context.Context, ip, actorType, channelType string, since time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(request_count), 0)
		FROM rate_limit_buckets
		WHERE ip_address = $1 AND actor_type = $2 AND channel_type = $3 AND window_start > $4;
	`
	var count int
	if err := r.db.QueryRow(ctx, query, ip, actorType, channelType, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rate limit buckets: %w", err)
	}

	return count, nil
}

// Increment is a single atomic upsert so concurrent issuances never undercount.
func (r *RateLimitRepository) Increment(ctx context.Context, ip, actorType, channelType string, windowStart time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rate_limit_buckets (actor_type, channel_type, ip_address, request_count, window_start)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (actor_type, channel_type, ip_address, window_start)
		DO UPDATE SET request_count = rate_limit_buckets.request_count + 1
	`, actorType, channelType, ip, windowStart)
	if err != nil {
		return fmt.Errorf("failed to increment rate limit bucket: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) PurgeBefore(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rate_limit_buckets WHERE window_start < $1`, before)
	if err != nil {
		return fmt.Errorf("failed to purge rate limit buckets: %w", err)
	}

	return nil
}
