package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/allisson/authserver/internal/errors"
)

// ErrorCode is the machine-readable error identifier returned to OAuth clients.
type ErrorCode string

// Error codes.
const (
	CodeNotFound                ErrorCode = "not_found"
	CodeInvalidRequest          ErrorCode = "invalid_request"
	CodeUnsupportedResponseType ErrorCode = "unsupported_response_type"
	CodeUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	CodeInvalidRedirectURI      ErrorCode = "invalid_redirect_uri"
	CodeInvalidScope            ErrorCode = "invalid_scope"
	CodeMissingPKCEParams       ErrorCode = "missing_pkce_params"
	CodeRedirectURIMismatch     ErrorCode = "redirect_uri_mismatch"
	CodeInvalidClientSecret     ErrorCode = "invalid_client_secret"
	CodeInvalidGrant            ErrorCode = "invalid_grant"
	CodeInvalidToken            ErrorCode = "invalid_token"
	CodeInsufficientScope       ErrorCode = "insufficient_scope"
	CodeUnauthorized            ErrorCode = "unauthorized"
)

// OAuthError is a client-facing error. It unwraps to one of the base error kinds in
// internal/errors, which decides the HTTP status, and matches other OAuthErrors with the
// same code through errors.Is.
type OAuthError struct {
	Code    ErrorCode
	Message string
	kind    error
}

func newOAuthError(kind error, code ErrorCode, message string) *OAuthError {
	return &OAuthError{Code: code, Message: message, kind: kind}
}

// Error implements error.
func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the base error kind.
func (e *OAuthError) Unwrap() error {
	return e.kind
}

// Is matches any OAuthError with the same code.
func (e *OAuthError) Is(target error) bool {
	t, ok := target.(*OAuthError)
	return ok && t.Code == e.Code
}

// ErrorCode returns the client-facing code.
func (e *OAuthError) ErrorCode() string {
	return string(e.Code)
}

// ErrorMessage returns the client-facing message.
func (e *OAuthError) ErrorMessage() string {
	return e.Message
}

// WithMessage returns a copy of the error carrying a different message.
func (e *OAuthError) WithMessage(message string) *OAuthError {
	return &OAuthError{Code: e.Code, Message: message, kind: e.kind}
}

// Client-facing errors.
var (
	ErrClientNotFound = newOAuthError(apperrors.ErrNotFound, CodeNotFound, "Client not found.")

	ErrInvalidRequest = newOAuthError(apperrors.ErrInvalidInput, CodeInvalidRequest, "Invalid request.")

	ErrUnsupportedChallengeMethod = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeInvalidRequest,
		"code_challenge_method must be S256.",
	)

	ErrUnsupportedResponseType = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeUnsupportedResponseType,
		"response_type must be code.",
	)

	ErrUnsupportedGrantType = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeUnsupportedGrantType,
		"grant_type must be authorization_code or refresh_token.",
	)

	ErrInvalidRedirectURI = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeInvalidRedirectURI,
		"redirect_uri is not registered for this client.",
	)

	ErrInvalidScope = newOAuthError(apperrors.ErrInvalidInput, CodeInvalidScope, "Invalid scope.")

	ErrMissingPKCEParams = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeMissingPKCEParams,
		"code_challenge and code_challenge_method are required.",
	)

	ErrRedirectURIMismatch = newOAuthError(
		apperrors.ErrInvalidInput,
		CodeRedirectURIMismatch,
		"redirect_uri does not match",
	)

	ErrInvalidClientSecret = newOAuthError(
		apperrors.ErrUnauthorized,
		CodeInvalidClientSecret,
		"Invalid client_secret.",
	)

	ErrInvalidCode = newOAuthError(apperrors.ErrUnauthorized, CodeInvalidGrant, "Invalid code")

	ErrInvalidCodeVerifier = newOAuthError(
		apperrors.ErrUnauthorized,
		CodeInvalidGrant,
		"Invalid code_verifier.",
	)

	ErrRefreshTokenNotFound = newOAuthError(
		apperrors.ErrUnauthorized,
		CodeInvalidGrant,
		"Refresh token not found.",
	)

	ErrRefreshTokenReplayed = newOAuthError(
		apperrors.ErrUnauthorized,
		CodeInvalidGrant,
		"Refresh token has already been used.",
	)

	ErrInvalidToken = newOAuthError(apperrors.ErrUnauthorized, CodeInvalidToken, "Invalid access token.")

	ErrInsufficientScope = newOAuthError(
		apperrors.ErrForbidden,
		CodeInsufficientScope,
		"The access token does not carry the required scope.",
	)

	ErrMissingSubject = newOAuthError(
		apperrors.ErrUnauthorized,
		CodeUnauthorized,
		"An authenticated subject is required.",
	)
)

// NewInvalidScopeError lists the offending scope tokens.
func NewInvalidScopeError(offending []string) *OAuthError {
	return ErrInvalidScope.WithMessage(fmt.Sprintf("Invalid scopes: %s", strings.Join(offending, ", ")))
}

// Storage errors. These never reach clients directly.
var (
	ErrAuthorizationCodeNotFound = apperrors.Wrap(apperrors.ErrNotFound, "authorization code not found")

	ErrAuthorizationCodeAlreadyConsumed = apperrors.Wrap(
		apperrors.ErrConflict,
		"authorization code already consumed",
	)

	ErrAccessTokenNotFound = apperrors.Wrap(apperrors.ErrNotFound, "access token not found")

	ErrStoredRefreshTokenNotFound = apperrors.Wrap(apperrors.ErrNotFound, "refresh token not found")

	ErrRefreshTokenAlreadyRotated = apperrors.Wrap(apperrors.ErrConflict, "refresh token already rotated")
)
