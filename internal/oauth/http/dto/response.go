package dto

import (
	"time"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// AuthorizeResponse carries the URL the consent UI redirects the user agent to.
type AuthorizeResponse struct {
	CallbackURL string `json:"callbackUrl"`
}

// TokenResponse is the token endpoint success body.
// SECURITY: Tokens are only returned once and must be stored securely by the client.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  //nolint:gosec // returned once on issuance
	RefreshToken string `json:"refresh_token"` //nolint:gosec // returned once on issuance
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// MapTokenOutputToResponse converts a use case result to the token endpoint body.
func MapTokenOutputToResponse(output *oauthDomain.TokenOutput) TokenResponse {
	return TokenResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		TokenType:    output.TokenType,
		ExpiresIn:    output.ExpiresIn,
		Scope:        output.Scope,
	}
}

// UserInfoResponse describes the subject and grant behind a bearer token.
type UserInfoResponse struct {
	Sub       string    `json:"sub"`
	ClientID  string    `json:"client_id"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MapAccessTokenToUserInfo converts an authenticated access token to a userinfo body.
func MapAccessTokenToUserInfo(token *oauthDomain.AccessToken) UserInfoResponse {
	return UserInfoResponse{
		Sub:       token.SubjectID,
		ClientID:  token.ClientID,
		Scope:     oauthDomain.JoinScope(token.Scopes),
		ExpiresAt: token.ExpiresAt,
	}
}
