package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/expotoworld/expotoworld-sub002/internal/auth/service TokenGenerator

import (
	"fmt"
	"time"

	"github.com/expotoworld/expotoworld-sub002/internal/auth/domain"
	"github.com/golang-jwt/jwt/v5"
)

type TokenGenerator interface {
	IssueAccessToken(userID, identity, role string, orgs []domain.OrgMembership) (string, time.Time, error)
	IssueRefreshSecret() (string, time.Time, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
}

type TokenService struct {
	SigningSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// OrgClaim mirrors domain.OrgMembership inside the signed claim set.
type OrgClaim struct {
	OrgID   string `json:"org_id"`
	OrgType string `json:"org_type"`
	OrgRole string `json:"org_role"`
}

// JWTCustomClaims is the structured access-token claim set: a snapshot of the
// account at issuance time, not a live view.
type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID   string     `json:"user_id"`
	Identity string     `json:"identity"`
	Role     string     `json:"role,omitempty"`
	Orgs     []OrgClaim `json:"orgs,omitempty"`
}

func NewTokenService(signingSecret string, accessMinutes, refreshDays int) *TokenService {
	return &TokenService{
		SigningSecret:      signingSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

func (ts *TokenService) IssueAccessToken(userID, identity, role string,
	orgs []domain.OrgMembership) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.AccessTokenExpiry)

	orgClaims := make([]OrgClaim, 0, len(orgs))
	for _, m := range orgs {
		orgClaims = append(orgClaims, OrgClaim{OrgID: m.OrgID, OrgType: m.OrgType, OrgRole: m.OrgRole})
	}

	claims := JWTCustomClaims{
		UserID:   userID,
		Identity: identity,
		Role:     role,
		Orgs:     orgClaims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.SigningSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// IssueRefreshSecret mints the opaque long-lived secret. The caller persists
// only its hash; the plaintext is never recoverable afterwards.
func (ts *TokenService) IssueRefreshSecret() (string, time.Time, error) {
	secret, err := NewRefreshSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	return secret, time.Now().Add(ts.RefreshTokenExpiry), nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.SigningSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
