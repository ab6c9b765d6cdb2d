package service

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/authserver/internal/errors"
)

const (
	clientIDPrefix     = "cl_"
	clientIDBytes      = 16
	clientSecretPrefix = "cs_"
	clientSecretBytes  = 32
)

// secretService implements SecretService using Argon2id for secret hashing.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateClientID returns "cl_" followed by 32 hex characters.
func (s *secretService) GenerateClientID() (string, error) {
	id, err := randomHex(clientIDBytes)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate client id")
	}
	return clientIDPrefix + id, nil
}

// GenerateSecret returns "cs_" followed by 64 hex characters and its Argon2id hash.
func (s *secretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	random, err := randomHex(clientSecretBytes)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}
	plainSecret = clientSecretPrefix + random

	hashedSecret, err = s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, hashedSecret, nil
}

// HashSecret hashes a plain text secret using Argon2id.
func (s *secretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret verifies a plain secret against its Argon2id hash.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	if plainSecret == "" || hashedSecret == "" {
		return false
	}
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewSecretService creates a new SecretService using the Moderate Argon2id policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}

func randomHex(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
