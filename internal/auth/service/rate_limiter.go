package service

import (
	"context"
	"time"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
)

// RateLimiter bounds code issuance per IP per (actor, channel) pair using
// hour-aligned persisted buckets. Windows are not sliding: the check is one
// aggregate query over buckets newer than the trailing window, so two bursts
// straddling an hour boundary can each pass. That boundary behavior is
// accepted and documented in the tests.
type RateLimiter struct {
	repo         domain.RateLimitRepository
	maxPerWindow int
	window       time.Duration
}

func NewRateLimiter(repo domain.RateLimitRepository, maxPerWindow, windowHours int) *RateLimiter {
	return &RateLimiter{
		repo:         repo,
		maxPerWindow: maxPerWindow,
		window:       time.Duration(windowHours) * time.Hour,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, ip, actorType, channelType string) (bool, error) {
	count, err := l.repo.CountSince(ctx, ip, actorType, channelType, time.Now().UTC().Add(-l.window))
	if err != nil {
		return false, err
	}

	return count < l.maxPerWindow, nil
}

// Record increments the current hour's bucket. The repository upsert is a
// single statement, so racing issuances can only overcount, never undercount.
func (l *RateLimiter) Record(ctx context.Context, ip, actorType, channelType string) error {
	windowStart := time.Now().UTC().Truncate(time.Hour)

	return l.repo.Increment(ctx, ip, actorType, channelType, windowStart)
}

// PurgeBefore drops buckets past their 24h retention; called opportunistically
// around issuance rather than from a scheduler.
func (l *RateLimiter) PurgeBefore(ctx context.Context, before time.Time) error {
	return l.repo.PurgeBefore(ctx, before)
}
