package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const refreshSecretBytes = 32

// SecretHasher owns the one-way hashing of both secret kinds. One-time codes
// use bcrypt so a leaked verification_codes table cannot be brute-forced
// offline cheaply; refresh secrets use SHA-256 because the hash doubles as the
// lookup key and therefore must be deterministic.
type SecretHasher struct {
	cost int
}

func NewSecretHasher() *SecretHasher {
	return &SecretHasher{cost: bcrypt.DefaultCost}
}

func (h *SecretHasher) HashCode(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	return string(hashed), nil
}

// VerifyCode compares in constant time via bcrypt.
func (h *SecretHasher) VerifyCode(codeHash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(code)) == nil
}

func (h *SecretHasher) HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyRefreshSecret exists for callers that already hold both values; the
// exchange path compares by hash lookup instead.
func (h *SecretHasher) VerifyRefreshSecret(hash, secret string) bool {
	computed := h.HashRefreshSecret(secret)

	return subtle.ConstantTimeCompare([]byte(hash), []byte(computed)) == 1
}

// NewNumericCode draws each digit independently from crypto/rand so every
// 6-digit value is equally likely, leading zeros included.
func NewNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate code digit: %w", err)
		}
		digits[i] = byte('0') + byte(n.Int64())
	}

	return string(digits), nil
}

// NewRefreshSecret returns 32 bytes of CSPRNG output, URL-safe encoded. The
// plaintext leaves the process exactly once, in the issuance response.
func NewRefreshSecret() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
