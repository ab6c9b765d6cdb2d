package domain

// GrantType discriminates the token endpoint request variants.
type GrantType string

// Supported grant types.
const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// ClientCredentials identifies the client on the token endpoint. They come from the form
// body or from HTTP Basic authentication; both produce the same value.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string //nolint:gosec // plain secret supplied by the client
}

// Credentials returns the client credentials of a grant.
func (c ClientCredentials) Credentials() ClientCredentials {
	return c
}

// Grant is a token endpoint request. Implementations are AuthorizationCodeGrant and
// RefreshTokenGrant.
type Grant interface {
	GrantType() GrantType
	Credentials() ClientCredentials
}

// AuthorizationCodeGrant exchanges an authorization code for a token pair.
type AuthorizationCodeGrant struct {
	ClientCredentials
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// GrantType implements Grant.
func (AuthorizationCodeGrant) GrantType() GrantType {
	return GrantTypeAuthorizationCode
}

// RefreshTokenGrant rotates a refresh token into a new token pair.
type RefreshTokenGrant struct {
	ClientCredentials
	RefreshToken string
}

// GrantType implements Grant.
func (RefreshTokenGrant) GrantType() GrantType {
	return GrantTypeRefreshToken
}
