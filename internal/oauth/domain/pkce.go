package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// CodeChallengeMethodS256 is the only accepted PKCE transformation.
const CodeChallengeMethodS256 = "S256"

const (
	minCodeVerifierLength = 43
	maxCodeVerifierLength = 128
)

// IsValidCodeVerifier reports whether verifier has 43 to 128 characters from the
// unreserved set [A-Za-z0-9-._~].
func IsValidCodeVerifier(verifier string) bool {
	if len(verifier) < minCodeVerifierLength || len(verifier) > maxCodeVerifierLength {
		return false
	}
	for i := 0; i < len(verifier); i++ {
		c := verifier[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}

// S256Challenge derives the S256 code challenge of verifier.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyCodeChallenge checks verifier against the stored challenge in constant time.
func VerifyCodeChallenge(verifier, challenge, method string) bool {
	if method != CodeChallengeMethodS256 || challenge == "" || !IsValidCodeVerifier(verifier) {
		return false
	}
	computed := S256Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
