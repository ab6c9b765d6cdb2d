package service

import (
	"crypto/sha256"
	"encoding/hex"

	apperrors "github.com/allisson/authserver/internal/errors"
)

// tokenBytes is the entropy of every code and token.
const tokenBytes = 40

// tokenService implements TokenService using crypto/rand and SHA-256.
type tokenService struct{}

// GenerateToken creates prefix + 80 hex characters and its SHA-256 hash.
func (t *tokenService) GenerateToken(prefix string) (plainToken string, tokenHash string, error error) {
	random, err := randomHex(tokenBytes)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken = prefix + random
	return plainToken, t.HashToken(plainToken), nil
}

// HashToken returns the hex-encoded SHA-256 digest of plainToken.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewTokenService creates a new TokenService.
func NewTokenService() TokenService {
	return &tokenService{}
}
