// Package usecase implements the authorization server flows: client registration,
// authorization code issuance, token exchange, refresh-token rotation and bearer token
// authentication.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// ClientRepository is the Client Registry backing store.
type ClientRepository interface {
	// Create stores a new client.
	Create(ctx context.Context, client *oauthDomain.Client) error

	// Update replaces the mutable fields of an existing client.
	Update(ctx context.Context, client *oauthDomain.Client) error

	// Get retrieves a client by its public identifier. Returns ErrClientNotFound if not found.
	Get(ctx context.Context, clientID string) (*oauthDomain.Client, error)
}

// AuthorizationCodeRepository persists authorization codes.
type AuthorizationCodeRepository interface {
	// Create stores a new authorization code.
	Create(ctx context.Context, code *oauthDomain.AuthorizationCode) error

	// GetByCodeHash retrieves a code by the SHA-256 hash of its value. Returns
	// ErrAuthorizationCodeNotFound if not found.
	GetByCodeHash(ctx context.Context, codeHash string) (*oauthDomain.AuthorizationCode, error)

	// Consume sets consumed_at from NULL to consumedAt in a single conditional update.
	// Returns ErrAuthorizationCodeAlreadyConsumed when the code was consumed by another
	// request or expired in the meantime.
	Consume(ctx context.Context, codeID uuid.UUID, consumedAt time.Time) error

	// DeleteExpired removes codes that expired before olderThan, or counts them when dryRun is true.
	DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// TokenRepository persists access and refresh tokens.
type TokenRepository interface {
	// CreateAccessToken stores a new access token.
	CreateAccessToken(ctx context.Context, token *oauthDomain.AccessToken) error

	// GetAccessTokenByHash retrieves an access token by hash. Returns ErrAccessTokenNotFound
	// if not found.
	GetAccessTokenByHash(ctx context.Context, tokenHash string) (*oauthDomain.AccessToken, error)

	// RevokeFamilyAccessTokens revokes every unrevoked access token of the family and
	// returns how many were revoked.
	RevokeFamilyAccessTokens(ctx context.Context, familyID uuid.UUID, revokedAt time.Time) (int64, error)

	// RevokeFamilyRefreshTokens marks the family head as superseded by itself so the
	// family can no longer be refreshed. Returns how many tokens were retired.
	RevokeFamilyRefreshTokens(ctx context.Context, familyID uuid.UUID) (int64, error)

	// CreateRefreshToken stores a new refresh token.
	CreateRefreshToken(ctx context.Context, token *oauthDomain.RefreshToken) error

	// GetRefreshTokenByHash retrieves a refresh token by hash. Returns
	// ErrStoredRefreshTokenNotFound if not found.
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*oauthDomain.RefreshToken, error)

	// SupersedeRefreshToken sets superseded_by_token_id from NULL to supersededByID in a
	// single conditional update. Returns ErrRefreshTokenAlreadyRotated when the token is no
	// longer the head of its family.
	SupersedeRefreshToken(ctx context.Context, tokenID uuid.UUID, supersededByID uuid.UUID) error

	// DeleteExpired removes access and refresh tokens that expired before olderThan, or
	// counts them when dryRun is true.
	DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// AuditLogRepository persists audit events.
type AuditLogRepository interface {
	// Create stores a new audit log entry.
	Create(ctx context.Context, auditLog *oauthDomain.AuditLog) error

	// DeleteOlderThan removes entries created before olderThan, or counts them when dryRun is true.
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// ClientUseCase manages client registrations. It backs the operator CLI; the
// authorization flows only read clients through ClientRepository.
type ClientUseCase interface {
	// Create registers a new client. Confidential clients receive a generated secret that
	// is returned once in plain text; public clients receive none and must use PKCE.
	Create(
		ctx context.Context,
		createClientInput *oauthDomain.CreateClientInput,
	) (*oauthDomain.CreateClientOutput, error)

	// Update replaces the name, redirect URIs, allowed scopes and active flag of a client.
	// Returns ErrClientNotFound if the client doesn't exist.
	Update(ctx context.Context, clientID string, updateClientInput *oauthDomain.UpdateClientInput) error

	// Get retrieves a client by ID. Returns ErrClientNotFound if the client doesn't exist.
	Get(ctx context.Context, clientID string) (*oauthDomain.Client, error)
}

// AuthorizeUseCase issues authorization codes.
type AuthorizeUseCase interface {
	// Authorize validates the request in this order: unknown client (not_found),
	// unregistered redirect_uri (invalid_redirect_uri), response_type, missing PKCE
	// parameters (missing_pkce_params), scope (invalid_scope). On success it stores a
	// single-use code and returns the callback URL carrying the code and state.
	Authorize(ctx context.Context, input *oauthDomain.AuthorizeInput) (*oauthDomain.AuthorizeOutput, error)
}

// TokenUseCase implements the token endpoint and bearer token validation.
type TokenUseCase interface {
	// Exchange dispatches on the grant variant. Authorization code grants consume the
	// code exactly once and start a new token family; refresh token grants rotate the
	// family head. Any failure leaves the store unchanged, except refresh token replay,
	// which revokes the whole family before failing with invalid_grant.
	Exchange(ctx context.Context, grant oauthDomain.Grant) (*oauthDomain.TokenOutput, error)

	// Authenticate resolves a plain bearer token to a live access token. Unknown, expired
	// and revoked tokens fail with invalid_token.
	Authenticate(ctx context.Context, plainToken string) (*oauthDomain.AccessToken, error)

	// CleanupExpired deletes codes and tokens that expired more than days ago. With dryRun
	// it only counts them.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}

// AuditLogUseCase records audit events.
type AuditLogUseCase interface {
	// Record stores an event. Failures are logged and never propagated.
	Record(
		ctx context.Context,
		event oauthDomain.AuditEvent,
		clientID string,
		subjectID string,
		metadata map[string]any,
	)

	// DeleteOlderThan deletes events older than days, or counts them when dryRun is true.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
