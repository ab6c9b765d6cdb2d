package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthorizationCode is a single-use credential bound to a client, redirect URI, subject,
// scope set and optional PKCE challenge. Only the SHA-256 hash of the code is stored.
type AuthorizationCode struct {
	ID                  uuid.UUID
	CodeHash            string
	ClientID            string
	SubjectID           string
	RedirectURI         string
	Scopes              []string // Resolved scopes before baseline injection
	CodeChallenge       string
	CodeChallengeMethod string
	CreatedAt           time.Time
	ExpiresAt           time.Time
	ConsumedAt          *time.Time
}

// IsExpired reports whether the code is past its expiry at the given instant.
func (a *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// IsConsumed reports whether the code was already exchanged.
func (a *AuthorizationCode) IsConsumed() bool {
	return a.ConsumedAt != nil
}

// HasChallenge reports whether the code was issued with a PKCE challenge.
func (a *AuthorizationCode) HasChallenge() bool {
	return a.CodeChallenge != ""
}

// AuthorizeInput is a validated authorization request plus the authenticated subject.
type AuthorizeInput struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	SubjectID           string
}

// AuthorizeOutput carries the callback URL the consent UI redirects the user agent to.
type AuthorizeOutput struct {
	CallbackURL string
}
