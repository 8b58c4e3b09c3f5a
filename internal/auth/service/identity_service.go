package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	autherror "github.com/expotoworld/expotoworld-sub002/internal/errors"
	"github.com/expotoworld/expotoworld-sub002/internal/logger"
	"github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

// ResolveOptions selects the strict resolution modes. Under the defaults a
// verified but unknown channel identity is auto-registered.
type ResolveOptions struct {
	RequireExisting bool
	RequireRole     string
}

// IdentityService maps a verified channel identity to an account, creating a
// minimal one when permitted.
type IdentityService struct {
	accounts domain.AccountRepository
}

func NewIdentityService(accounts domain.AccountRepository) *IdentityService {
	return &IdentityService{accounts: accounts}
}

// ResolveOrCreate runs after the code has already been consumed, so every
// denial here is terminal for that code: the caller must not retry it. All
// policy denials are ErrForbidden, indistinguishable by design.
func (s *IdentityService) ResolveOrCreate(ctx context.Context, subject, channelType string,
	opts ResolveOptions) (*domain.Account, error) {
	var account *domain.Account
	var err error
	if channelType == constant.ChannelPhone {
		account, err = s.accounts.GetByPhone(ctx, subject)
	} else {
		account, err = s.accounts.GetByEmail(ctx, subject)
	}
	if err != nil {
		return nil, err
	}

	if account == nil {
		// A configured role requirement can never be satisfied by a brand-new
		// account, so denial wins over auto-registration.
		if opts.RequireExisting || opts.RequireRole != "" {
			return nil, autherror.ErrForbidden
		}

		return s.autoRegister(ctx, subject, channelType)
	}

	if account.Status != constant.StatusActive {
		return nil, autherror.ErrForbidden
	}

	if opts.RequireRole != "" && account.Role != opts.RequireRole {
		return nil, autherror.ErrForbidden
	}

	return account, nil
}

func (s *IdentityService) autoRegister(ctx context.Context, subject, channelType string) (*domain.Account, error) {
	now := time.Now()

	account := &domain.Account{
		ID:        uuid.New().String(),
		Username:  usernameFromSubject(subject, channelType),
		Status:    constant.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if channelType == constant.ChannelPhone {
		account.Phone = subject
	} else {
		account.Email = subject
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"user_id": account.ID,
		"channel": channelType,
	}).Info("account auto-registered from verified channel identity")

	return account, nil
}

// usernameFromSubject derives the minimal username: the email local-part, or
// the phone number's digits.
func usernameFromSubject(subject, channelType string) string {
	if channelType == constant.ChannelPhone {
		var b strings.Builder
		for _, r := range subject {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}

		return b.String()
	}

	if at := strings.Index(subject, "@"); at > 0 {
		return subject[:at]
	}

	return subject
}
