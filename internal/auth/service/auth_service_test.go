package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/dto"
	"github.com/expotoworld/expotoworld-sub002/internal/auth/service"
	autherror "github.com/expotoworld/expotoworld-sub002/internal/errors"
	"github.com/expotoworld/expotoworld-sub002/internal/mocks"
	authconstant "github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

type authFixture struct {
	codes     *mocks.MockVerificationRepository
	accounts  *mocks.MockAccountRepository
	rateRepo  *mocks.MockRateLimitRepository
	messenger *mocks.MockMessenger
	refresh   *mocks.MockRefreshTokenRepository
	tokens    *mocks.MockTokenGenerator
	hasher    *service.SecretHasher
	svc       *service.AuthService
}

func newAuthFixture(ctrl *gomock.Controller) *authFixture {
	f := &authFixture{
		codes:     mocks.NewMockVerificationRepository(ctrl),
		accounts:  mocks.NewMockAccountRepository(ctrl),
		rateRepo:  mocks.NewMockRateLimitRepository(ctrl),
		messenger: mocks.NewMockMessenger(ctrl),
		refresh:   mocks.NewMockRefreshTokenRepository(ctrl),
		tokens:    mocks.NewMockTokenGenerator(ctrl),
		hasher:    service.NewSecretHasher(),
	}
	limiter := service.NewRateLimiter(f.rateRepo, 5, 1)
	verification := service.NewVerificationService(f.codes, f.accounts, limiter, f.hasher,
		f.messenger, 10, 3, 10)
	identity := service.NewIdentityService(f.accounts)
	f.svc = service.NewAuthService(verification, identity, f.accounts, f.refresh, f.tokens, f.hasher)

	return f
}

// expectValidCode arranges the verification lookup and consumption for the
// given plaintext.
func (f *authFixture) expectValidCode(t *testing.T, subject, plaintext string) {
	t.Helper()

	hash, err := f.hasher.HashCode(plaintext)
	require.NoError(t, err)

	code := &domain.VerificationCode{
		ID:          "code-1",
		ActorType:   authconstant.ActorUser,
		ChannelType: authconstant.ChannelEmail,
		Subject:     subject,
		CodeHash:    hash,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}
	f.codes.EXPECT().
		GetLatestActive(gomock.Any(), subject, authconstant.ActorUser, authconstant.ChannelEmail, gomock.Any()).
		Return(code, nil)
	f.codes.EXPECT().MarkUsed(gomock.Any(), "code-1").Return(true, nil)
}

func TestAuthService_SubmitCode_ExistingAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	f.expectValidCode(t, "user@example.com", "123456")

	account := &domain.Account{
		ID:     "user-1",
		Email:  "user@example.com",
		Role:   "user",
		Status: authconstant.StatusActive,
		Orgs:   []domain.OrgMembership{{OrgID: "org-1", OrgType: "store", OrgRole: "owner"}},
	}
	f.accounts.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(account, nil)

	accessExpiry := time.Now().Add(30 * time.Minute)
	refreshExpiry := time.Now().Add(30 * 24 * time.Hour)
	f.tokens.EXPECT().
		IssueAccessToken("user-1", "user@example.com", "user", account.Orgs).
		Return("access-token", accessExpiry, nil)
	f.tokens.EXPECT().IssueRefreshSecret().Return("refresh-secret", refreshExpiry, nil)

	var stored *domain.RefreshToken
	f.refresh.EXPECT().Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			stored = rt
			return nil
		})
	f.refresh.EXPECT().
		RevokeAllForUserAgent(gomock.Any(), "user-1", "test-agent", gomock.Any()).
		Return(nil)

	input := dto.SubmitCodeInput{
		Subject:   "user@example.com",
		Channel:   authconstant.ChannelEmail,
		Code:      "123456",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}
	resp, err := f.svc.SubmitCode(context.Background(), input, authconstant.ActorUser, service.ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-secret", resp.RefreshToken)
	require.NotNil(t, resp.RefreshExpiresAt)
	assert.Equal(t, refreshExpiry, *resp.RefreshExpiresAt)
	require.NotNil(t, resp.Account)
	assert.Equal(t, "user-1", resp.Account.ID)

	// Only the hash of the secret is persisted.
	require.NotNil(t, stored)
	assert.Equal(t, f.hasher.HashRefreshSecret("refresh-secret"), stored.TokenHash)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	assert.Equal(t, "test-agent", stored.UserAgent)
	assert.False(t, stored.Revoked)
}

func TestAuthService_SubmitCode_AutoRegisters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	f.expectValidCode(t, "new.user@example.com", "123456")

	f.accounts.EXPECT().GetByEmail(gomock.Any(), "new.user@example.com").Return(nil, nil)

	var created *domain.Account
	f.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *domain.Account) error {
			created = a
			return nil
		})

	f.tokens.EXPECT().
		IssueAccessToken(gomock.Any(), "new.user@example.com", "", gomock.Any()).
		Return("access-token", time.Now().Add(30*time.Minute), nil)
	f.tokens.EXPECT().IssueRefreshSecret().Return("refresh-secret", time.Now().Add(720*time.Hour), nil)
	f.refresh.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	f.refresh.EXPECT().RevokeAllForUserAgent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	input := dto.SubmitCodeInput{
		Subject:   "new.user@example.com",
		Channel:   authconstant.ChannelEmail,
		Code:      "123456",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}
	resp, err := f.svc.SubmitCode(context.Background(), input, authconstant.ActorUser, service.ResolveOptions{})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new.user@example.com", created.Email)
	assert.Equal(t, "new.user", created.Username)
	assert.Equal(t, authconstant.StatusActive, created.Status)
	assert.Equal(t, created.ID, resp.Account.ID)
}

// TestAuthService_SubmitCode_RoleDenialAfterConsumption: the code is consumed
// before the role check runs, so the denial is terminal for that code and no
// token is issued.
func TestAuthService_SubmitCode_RoleDenialAfterConsumption(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	f.expectValidCode(t, "user@example.com", "123456")

	// Required role plus nonexistent account: denial wins over auto-registration.
	f.accounts.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(nil, nil)

	input := dto.SubmitCodeInput{
		Subject:   "user@example.com",
		Channel:   authconstant.ChannelEmail,
		Code:      "123456",
		IPAddress: "10.0.0.1",
	}
	resp, err := f.svc.SubmitCode(context.Background(), input, authconstant.ActorUser,
		service.ResolveOptions{RequireRole: "merchant"})

	assert.ErrorIs(t, err, autherror.ErrForbidden)
	assert.Nil(t, resp)
}

func TestAuthService_SubmitCode_Replay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)

	// The first submission consumed the row, so no active code remains.
	f.codes.EXPECT().
		GetLatestActive(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	input := dto.SubmitCodeInput{
		Subject: "user@example.com",
		Channel: authconstant.ChannelEmail,
		Code:    "123456",
	}
	_, err := f.svc.SubmitCode(context.Background(), input, authconstant.ActorUser, service.ResolveOptions{})

	assert.ErrorIs(t, err, autherror.ErrCodeNotFound)
}

func validRefreshRow(f *authFixture, secret string) *domain.RefreshToken {
	return &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		TokenHash: f.hasher.HashRefreshSecret(secret),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestAuthService_Refresh_NoRotate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	row := validRefreshRow(f, "the-secret")

	f.refresh.EXPECT().
		GetByHash(gomock.Any(), f.hasher.HashRefreshSecret("the-secret")).
		Return(row, nil)
	account := &domain.Account{ID: "user-1", Email: "user@example.com", Status: authconstant.StatusActive}
	f.accounts.EXPECT().GetByID(gomock.Any(), "user-1").Return(account, nil)
	f.tokens.EXPECT().
		IssueAccessToken("user-1", "user@example.com", "", gomock.Any()).
		Return("new-access", time.Now().Add(30*time.Minute), nil)

	// No Store, RevokeIfActive, or RevokeAllForIP expectations: rotate=false
	// must leave the set of valid refresh rows untouched.
	resp, err := f.svc.Refresh(context.Background(), dto.RefreshInput{
		RefreshToken: "the-secret",
		Rotate:       false,
		IPAddress:    "10.0.0.1",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
	assert.Nil(t, resp.RefreshExpiresAt)
}

func TestAuthService_Refresh_Rotate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	row := validRefreshRow(f, "the-secret")

	f.refresh.EXPECT().
		GetByHash(gomock.Any(), f.hasher.HashRefreshSecret("the-secret")).
		Return(row, nil)
	account := &domain.Account{ID: "user-1", Email: "user@example.com", Status: authconstant.StatusActive}
	f.accounts.EXPECT().GetByID(gomock.Any(), "user-1").Return(account, nil)
	f.tokens.EXPECT().
		IssueAccessToken("user-1", "user@example.com", "", gomock.Any()).
		Return("new-access", time.Now().Add(30*time.Minute), nil)

	refreshExpiry := time.Now().Add(720 * time.Hour)
	f.refresh.EXPECT().RevokeIfActive(gomock.Any(), "rt-1").Return(true, nil)
	f.tokens.EXPECT().IssueRefreshSecret().Return("next-secret", refreshExpiry, nil)

	var stored *domain.RefreshToken
	f.refresh.EXPECT().Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			stored = rt
			return nil
		})
	f.refresh.EXPECT().
		RevokeAllForIP(gomock.Any(), "user-1", "10.0.0.2", gomock.Any()).
		Return(nil)
	f.refresh.EXPECT().DeleteExpired(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := f.svc.Refresh(context.Background(), dto.RefreshInput{
		RefreshToken: "the-secret",
		Rotate:       true,
		IPAddress:    "10.0.0.2",
		UserAgent:    "test-agent",
	})

	require.NoError(t, err)
	assert.Equal(t, "next-secret", resp.RefreshToken)
	require.NotNil(t, stored)
	assert.Equal(t, f.hasher.HashRefreshSecret("next-secret"), stored.TokenHash)
	assert.Equal(t, "10.0.0.2", stored.IPAddress)
}

func TestAuthService_Refresh_Invalid(t *testing.T) {
	tests := []struct {
		name string
		row  func(f *authFixture) *domain.RefreshToken
	}{
		{
			name: "unknown secret",
			row:  func(f *authFixture) *domain.RefreshToken { return nil },
		},
		{
			name: "revoked row",
			row: func(f *authFixture) *domain.RefreshToken {
				row := validRefreshRow(f, "the-secret")
				row.Revoked = true
				return row
			},
		},
		{
			name: "expired row",
			row: func(f *authFixture) *domain.RefreshToken {
				row := validRefreshRow(f, "the-secret")
				row.ExpiresAt = time.Now().Add(-time.Minute)
				return row
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newAuthFixture(ctrl)
			f.refresh.EXPECT().GetByHash(gomock.Any(), gomock.Any()).Return(tt.row(f), nil)

			_, err := f.svc.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "the-secret"})
			assert.ErrorIs(t, err, autherror.ErrRefreshTokenInvalid)
		})
	}
}

// TestAuthService_Refresh_ConcurrentRotation: the presented row was revoked
// between lookup and the compare-and-set, i.e. a concurrent exchange of the
// same secret won. No successor may be minted.
func TestAuthService_Refresh_ConcurrentRotation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)
	row := validRefreshRow(f, "the-secret")

	f.refresh.EXPECT().GetByHash(gomock.Any(), gomock.Any()).Return(row, nil)
	account := &domain.Account{ID: "user-1", Email: "user@example.com", Status: authconstant.StatusActive}
	f.accounts.EXPECT().GetByID(gomock.Any(), "user-1").Return(account, nil)
	f.tokens.EXPECT().
		IssueAccessToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("new-access", time.Now().Add(30*time.Minute), nil)
	f.refresh.EXPECT().RevokeIfActive(gomock.Any(), "rt-1").Return(false, nil)

	_, err := f.svc.Refresh(context.Background(), dto.RefreshInput{
		RefreshToken: "the-secret",
		Rotate:       true,
	})

	assert.ErrorIs(t, err, autherror.ErrRefreshTokenInvalid)
}

func TestAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthFixture(ctrl)

	t.Run("revokes the presented token", func(t *testing.T) {
		row := validRefreshRow(f, "the-secret")
		f.refresh.EXPECT().GetByHash(gomock.Any(), f.hasher.HashRefreshSecret("the-secret")).Return(row, nil)
		f.refresh.EXPECT().RevokeIfActive(gomock.Any(), "rt-1").Return(true, nil)

		assert.NoError(t, f.svc.Logout(context.Background(), "the-secret"))
	})

	t.Run("unknown token", func(t *testing.T) {
		f.refresh.EXPECT().GetByHash(gomock.Any(), gomock.Any()).Return(nil, nil)

		err := f.svc.Logout(context.Background(), "bogus")
		assert.ErrorIs(t, err, autherror.ErrRefreshTokenInvalid)
	})
}
