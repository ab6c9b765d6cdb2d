// Package service provides the cryptographic primitives of the authorization server:
// client credential generation and hashing, and opaque token generation and hashing.
package service

// SecretService generates and verifies client credentials.
type SecretService interface {
	// GenerateClientID returns a new public client identifier.
	GenerateClientID() (string, error)

	// GenerateSecret creates a new random client secret and its Argon2id hash.
	// The plain secret is shown once to the operator and never stored.
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// HashSecret hashes a plain text secret.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret reports whether plainSecret matches hashedSecret. The comparison is
	// constant-time.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService generates opaque credentials (authorization codes, access tokens and
// refresh tokens) and hashes them for storage.
type TokenService interface {
	// GenerateToken returns prefix followed by 40 random bytes rendered as 80 lowercase
	// hex characters, and the SHA-256 hash of the whole value.
	GenerateToken(prefix string) (plainToken string, tokenHash string, error error)

	// HashToken hashes a plain token using SHA-256.
	HashToken(plainToken string) string
}
