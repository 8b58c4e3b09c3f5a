package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/dto"
	autherror "github.com/expotoworld/expotoworld-sub002/internal/errors"
	"github.com/expotoworld/expotoworld-sub002/internal/logger"
)

// AuthService ties the verification, identity, and token components into the
// three operations the platform consumes: RequestCode, SubmitCode, Refresh.
type AuthService struct {
	verification *VerificationService
	identity     *IdentityService
	accounts     domain.AccountRepository
	refreshRepo  domain.RefreshTokenRepository
	tokens       TokenGenerator
	hasher       *SecretHasher
}

func NewAuthService(verification *VerificationService, identity *IdentityService,
	accounts domain.AccountRepository, refreshRepo domain.RefreshTokenRepository,
	tokens TokenGenerator, hasher *SecretHasher) *AuthService {
	return &AuthService{
		verification: verification,
		identity:     identity,
		accounts:     accounts,
		refreshRepo:  refreshRepo,
		tokens:       tokens,
		hasher:       hasher,
	}
}

func (s *AuthService) RequestCode(ctx context.Context, input dto.RequestCodeInput,
	actorType string, opts IssueOptions) (*dto.RequestCodeOutput, error) {
	_, expiresAt, err := s.verification.Issue(ctx, input.Subject, actorType, input.Channel,
		input.IPAddress, opts)
	if err != nil {
		return nil, err
	}

	return &dto.RequestCodeOutput{ExpiresAt: expiresAt}, nil
}

// SubmitCode validates the one-time code, resolves (or creates) the account,
// and mints the token pair. Re-authenticating from the same device invalidates
// that device's prior refresh tokens rather than accumulating live ones.
func (s *AuthService) SubmitCode(ctx context.Context, input dto.SubmitCodeInput,
	actorType string, opts ResolveOptions) (*dto.TokenResponse, error) {
	if err := s.verification.Validate(ctx, input.Subject, actorType, input.Channel, input.Code); err != nil {
		return nil, err
	}

	account, err := s.identity.ResolveOrCreate(ctx, input.Subject, input.Channel, opts)
	if err != nil {
		return nil, err
	}

	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(account.ID, input.Subject,
		account.Role, account.Orgs)
	if err != nil {
		return nil, err
	}

	secret, refreshExpiresAt, err := s.issueRefreshToken(ctx, account.ID, input.IPAddress, input.UserAgent, true)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"user_id": account.ID,
		"subject": input.Subject,
		"ip":      input.IPAddress,
	}).Info("authentication succeeded")

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     secret,
		RefreshExpiresAt: &refreshExpiresAt,
		Account: &dto.AccountOutput{
			ID:       account.ID,
			Email:    account.Email,
			Phone:    account.Phone,
			Username: account.Username,
			Role:     account.Role,
		},
	}, nil
}

// issueRefreshToken persists the hash of a fresh secret and, when supersede is
// set, revokes every other live token for the same (user, userAgent) lineage.
func (s *AuthService) issueRefreshToken(ctx context.Context, userID, ip, userAgent string,
	supersede bool) (string, time.Time, error) {
	secret, expiresAt, err := s.tokens.IssueRefreshSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	rt := &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: s.hasher.HashRefreshSecret(secret),
		ExpiresAt: expiresAt,
		Revoked:   false,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}
	if err := s.refreshRepo.Store(ctx, rt); err != nil {
		return "", time.Time{}, err
	}

	if supersede {
		if err := s.refreshRepo.RevokeAllForUserAgent(ctx, userID, userAgent, rt.ID); err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).
				Warn("failed to revoke superseded refresh tokens")
		}
	}

	return secret, expiresAt, nil
}

// Refresh exchanges a refresh secret for a new access token. With rotate set
// it also replaces the presented secret; revocation of the presented row is a
// compare-and-set, so a concurrent rotation of the same secret fails with
// ErrRefreshTokenInvalid instead of minting a second successor.
func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	// Step 1: Look up the presented secret by hash and validate its state.
	token, err := s.refreshRepo.GetByHash(ctx, s.hasher.HashRefreshSecret(input.RefreshToken))
	if err != nil {
		return nil, err
	}
	if token == nil || token.Revoked || time.Now().After(token.ExpiresAt) {
		return nil, autherror.ErrRefreshTokenInvalid
	}

	// Step 2: Re-snapshot the account so claims reflect current role/orgs.
	account, err := s.accounts.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrRefreshTokenInvalid
	}

	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(account.ID, account.Identity(),
		account.Role, account.Orgs)
	if err != nil {
		return nil, err
	}

	resp := &dto.TokenResponse{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiresAt,
	}

	// Silent background refresh leaves the refresh row untouched.
	if !input.Rotate {
		return resp, nil
	}

	// Step 3: Revoke the presented row; losing the race means another
	// exchange already rotated this secret.
	revoked, err := s.refreshRepo.RevokeIfActive(ctx, token.ID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, autherror.ErrRefreshTokenInvalid
	}

	// Step 4: Persist the successor, then collapse the rest of the lineage
	// for this (user, ip) so live tokens do not accumulate.
	secret, refreshExpiresAt, err := s.tokens.IssueRefreshSecret()
	if err != nil {
		return nil, err
	}
	newToken := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    token.UserID,
		TokenHash: s.hasher.HashRefreshSecret(secret),
		ExpiresAt: refreshExpiresAt,
		Revoked:   false,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := s.refreshRepo.Store(ctx, newToken); err != nil {
		return nil, err
	}

	if err := s.refreshRepo.RevokeAllForIP(ctx, token.UserID, input.IPAddress, newToken.ID); err != nil {
		logger.Log.WithError(err).WithField("user_id", token.UserID).
			Warn("failed to revoke sibling refresh tokens")
	}

	// Expired rows past their grace period ride along on rotation traffic.
	if err := s.refreshRepo.DeleteExpired(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		logger.Log.WithError(err).Warn("failed to delete expired refresh tokens")
	}

	logger.Log.WithFields(map[string]interface{}{
		"user_id": token.UserID,
		"ip":      input.IPAddress,
	}).Info("refresh token rotated")

	resp.RefreshToken = secret
	resp.RefreshExpiresAt = &refreshExpiresAt

	return resp, nil
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	token, err := s.refreshRepo.GetByHash(ctx, s.hasher.HashRefreshSecret(refreshSecret))
	if err != nil {
		return err
	}
	if token == nil {
		return autherror.ErrRefreshTokenInvalid
	}

	if _, err := s.refreshRepo.RevokeIfActive(ctx, token.ID); err != nil {
		return err
	}

	return nil
}
