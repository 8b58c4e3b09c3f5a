package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	autherror "github.com/expotoworld/expotoworld-sub002/internal/errors"
	"github.com/expotoworld/expotoworld-sub002/internal/logger"
	"github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

// IssueOptions selects the stricter issuance modes some integrations need.
// The admin actor implies RequireAccount plus the admin role allow list
// regardless of these options.
type IssueOptions struct {
	RequireAccount bool
	RequireRole    string
}

// VerificationService implements both sides of the one-time-code lifecycle:
// issuance (rate limit, generate, hash, persist, dispatch) and validation
// (lookup, attempt ceiling, constant-time compare, single-use consumption).
type VerificationService struct {
	codes           domain.VerificationRepository
	accounts        domain.AccountRepository
	limiter         *RateLimiter
	hasher          *SecretHasher
	messenger       domain.Messenger
	codeTTL         time.Duration
	maxAttempts     int
	dispatchTimeout time.Duration
}

func NewVerificationService(codes domain.VerificationRepository, accounts domain.AccountRepository,
	limiter *RateLimiter, hasher *SecretHasher, messenger domain.Messenger,
	codeTTLMinutes, maxAttempts, dispatchTimeoutSec int) *VerificationService {
	return &VerificationService{
		codes:           codes,
		accounts:        accounts,
		limiter:         limiter,
		hasher:          hasher,
		messenger:       messenger,
		codeTTL:         time.Duration(codeTTLMinutes) * time.Minute,
		maxAttempts:     maxAttempts,
		dispatchTimeout: time.Duration(dispatchTimeoutSec) * time.Second,
	}
}

// Issue runs the full issuance pipeline and returns the persisted code's id
// and expiry. The plaintext code only travels through the messenger.
func (s *VerificationService) Issue(ctx context.Context, subject, actorType, channelType,
	ip string, opts IssueOptions) (string, time.Time, error) {
	if err := s.checkIssuePolicy(ctx, subject, actorType, channelType, opts); err != nil {
		return "", time.Time{}, err
	}

	allowed, err := s.limiter.Allow(ctx, ip, actorType, channelType)
	if err != nil {
		return "", time.Time{}, err
	}
	if !allowed {
		logger.Log.WithFields(map[string]interface{}{
			"subject": subject,
			"ip":      ip,
			"actor":   actorType,
			"channel": channelType,
		}).Warn("verification issuance rate limited")

		return "", time.Time{}, autherror.ErrRateLimited
	}

	plaintext, err := NewNumericCode(constant.CodeLength)
	if err != nil {
		return "", time.Time{}, err
	}

	codeHash, err := s.hasher.HashCode(plaintext)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	code := &domain.VerificationCode{
		ID:          uuid.New().String(),
		ActorType:   actorType,
		ChannelType: channelType,
		Subject:     subject,
		CodeHash:    codeHash,
		Attempts:    0,
		ExpiresAt:   now.Add(s.codeTTL),
		Used:        false,
		IPAddress:   ip,
		CreatedAt:   now,
	}
	if err := s.codes.Insert(ctx, code); err != nil {
		return "", time.Time{}, err
	}

	if err := s.limiter.Record(ctx, ip, actorType, channelType); err != nil {
		return "", time.Time{}, err
	}

	dispatchErr := s.dispatch(ctx, channelType, subject, plaintext)

	// Opportunistic cleanup runs whether or not dispatch succeeded; a failed
	// send still leaves the row eligible for a rate-limited re-issue.
	s.cleanup(ctx, actorType, channelType)

	if dispatchErr != nil {
		logger.Log.WithFields(map[string]interface{}{
			"subject": subject,
			"ip":      ip,
			"channel": channelType,
		}).WithError(dispatchErr).Error("verification code dispatch failed")

		return "", time.Time{}, autherror.ErrDeliveryFailed
	}

	logger.Log.WithFields(map[string]interface{}{
		"subject": subject,
		"ip":      ip,
		"actor":   actorType,
		"channel": channelType,
	}).Info("verification code issued")

	return code.ID, code.ExpiresAt, nil
}

// checkIssuePolicy enforces the admin precondition and the optional strict
// modes. Every denial maps to ErrForbidden so callers cannot distinguish a
// missing account from a role mismatch.
func (s *VerificationService) checkIssuePolicy(ctx context.Context, subject, actorType,
	channelType string, opts IssueOptions) error {
	requireAccount := opts.RequireAccount
	requireRoles := []string{}
	if opts.RequireRole != "" {
		requireRoles = append(requireRoles, opts.RequireRole)
	}
	if actorType == constant.ActorAdmin {
		requireAccount = true
		requireRoles = constant.AdminIssueRoles
	}

	if !requireAccount {
		return nil
	}

	account, err := s.lookupAccount(ctx, subject, channelType)
	if err != nil {
		return err
	}
	if account == nil || account.Status != constant.StatusActive {
		return autherror.ErrForbidden
	}
	if len(requireRoles) > 0 {
		for _, role := range requireRoles {
			if account.Role == role {
				return nil
			}
		}

		return autherror.ErrForbidden
	}

	return nil
}

func (s *VerificationService) lookupAccount(ctx context.Context, subject, channelType string) (*domain.Account, error) {
	if channelType == constant.ChannelPhone {
		return s.accounts.GetByPhone(ctx, subject)
	}

	return s.accounts.GetByEmail(ctx, subject)
}

func (s *VerificationService) dispatch(ctx context.Context, channelType, subject, plaintext string) error {
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		plaintext, int(s.codeTTL.Minutes()))

	dispatchCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	return s.messenger.Send(dispatchCtx, channelType, subject, body)
}

func (s *VerificationService) cleanup(ctx context.Context, actorType, channelType string) {
	if err := s.codes.DeleteExpired(ctx, actorType, channelType, time.Now()); err != nil {
		logger.Log.WithError(err).Warn("failed to purge expired verification codes")
	}
	if err := s.limiter.PurgeBefore(ctx, time.Now().UTC().Add(-24*time.Hour)); err != nil {
		logger.Log.WithError(err).Warn("failed to purge stale rate limit buckets")
	}
}

// Validate checks a submitted code against the most recent active challenge.
// Marking the row used is a compare-and-set, so of two concurrent submissions
// with the correct code at most one succeeds; the loser gets ErrCodeNotFound.
func (s *VerificationService) Validate(ctx context.Context, subject, actorType, channelType, submitted string) error {
	code, err := s.codes.GetLatestActive(ctx, subject, actorType, channelType, time.Now())
	if err != nil {
		return err
	}
	if code == nil {
		return autherror.ErrCodeNotFound
	}

	if code.Attempts >= s.maxAttempts {
		return autherror.ErrAttemptsExceeded
	}

	if !s.hasher.VerifyCode(code.CodeHash, submitted) {
		if _, err := s.codes.IncrementAttempts(ctx, code.ID); err != nil {
			return err
		}
		logger.Log.WithFields(map[string]interface{}{
			"subject": subject,
			"actor":   actorType,
			"channel": channelType,
		}).Warn("incorrect verification code submitted")

		return autherror.ErrCodeIncorrect
	}

	consumed, err := s.codes.MarkUsed(ctx, code.ID)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost the race against a concurrent validation of the same code.
		return autherror.ErrCodeNotFound
	}

	return nil
}
