package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// AccessToken is an opaque bearer credential. Only its SHA-256 hash is persisted.
type AccessToken struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  string
	SubjectID string
	Scopes    []string
	FamilyID  uuid.UUID // Refresh-token lineage that produced this token
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsValid reports whether the token is neither expired nor revoked at the given instant.
func (a *AccessToken) IsValid(now time.Time) bool {
	return a.RevokedAt == nil && now.Before(a.ExpiresAt)
}

// HasScope reports whether the token carries the given scope.
func (a *AccessToken) HasScope(scope string) bool {
	return slices.Contains(a.Scopes, scope)
}

// RefreshToken is a rotating credential. At most one token per family has a nil
// SupersededByTokenID; presenting any other member of the family is a replay.
type RefreshToken struct {
	ID                  uuid.UUID
	TokenHash           string
	ClientID            string
	SubjectID           string
	Scopes              []string
	FamilyID            uuid.UUID
	IssuedAt            time.Time
	ExpiresAt           time.Time
	SupersededByTokenID *uuid.UUID
}

// IsExpired reports whether the refresh token is past its expiry at the given instant.
func (r *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsHead reports whether the token is the active head of its family.
func (r *RefreshToken) IsHead() bool {
	return r.SupersededByTokenID == nil
}

// TokenOutput is the token endpoint response.
type TokenOutput struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	Scope        string
}
