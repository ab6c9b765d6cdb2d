// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	customValidation "github.com/allisson/authserver/internal/validation"
)

// AuthorizeRequest contains the parameters of POST /oauth/authorize. It is accepted as a
// form or JSON body.
type AuthorizeRequest struct {
	ClientID            string `json:"client_id"             form:"client_id"`
	RedirectURI         string `json:"redirect_uri"          form:"redirect_uri"`
	ResponseType        string `json:"response_type"         form:"response_type"`
	Scope               string `json:"scope"                 form:"scope"`
	State               string `json:"state"                 form:"state"`
	CodeChallenge       string `json:"code_challenge"        form:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method" form:"code_challenge_method"`
}

// Validate checks the structure of the request. Semantic checks (registered redirect URI,
// response type, PKCE and scope) are left to the use case so that they are reported in
// a fixed order.
func (r *AuthorizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ClientID,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.RedirectURI, validation.Length(0, 2048)),
		validation.Field(&r.Scope, validation.Length(0, 1024)),
		validation.Field(&r.State, validation.Length(0, 1024)),
		validation.Field(&r.CodeChallenge, validation.Length(0, 128)),
	)
}

// ToInput converts the request into use case input for the authenticated subject.
func (r *AuthorizeRequest) ToInput(subjectID string) *oauthDomain.AuthorizeInput {
	return &oauthDomain.AuthorizeInput{
		ClientID:            r.ClientID,
		RedirectURI:         r.RedirectURI,
		ResponseType:        r.ResponseType,
		Scope:               r.Scope,
		State:               r.State,
		CodeChallenge:       r.CodeChallenge,
		CodeChallengeMethod: r.CodeChallengeMethod,
		SubjectID:           subjectID,
	}
}

// TokenRequest contains the parameters of POST /oauth/token.
type TokenRequest struct {
	GrantType    string `json:"grant_type"    form:"grant_type"`
	ClientID     string `json:"client_id"     form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"` //nolint:gosec // plain secret supplied by the client
	Code         string `json:"code"          form:"code"`
	RedirectURI  string `json:"redirect_uri"  form:"redirect_uri"`
	CodeVerifier string `json:"code_verifier" form:"code_verifier"`
	RefreshToken string `json:"refresh_token" form:"refresh_token"` //nolint:gosec // plain token supplied by the client
}

// IsSupportedGrantType reports whether grant_type names a supported grant.
func (r *TokenRequest) IsSupportedGrantType() bool {
	switch oauthDomain.GrantType(r.GrantType) {
	case oauthDomain.GrantTypeAuthorizationCode, oauthDomain.GrantTypeRefreshToken:
		return true
	default:
		return false
	}
}

// Validate checks the fields required by the grant type. An absent redirect_uri on the
// code grant is reported by the use case as redirect_uri_mismatch.
func (r *TokenRequest) Validate() error {
	isCodeGrant := oauthDomain.GrantType(r.GrantType) == oauthDomain.GrantTypeAuthorizationCode
	isRefreshGrant := oauthDomain.GrantType(r.GrantType) == oauthDomain.GrantTypeRefreshToken

	return validation.ValidateStruct(r,
		validation.Field(&r.ClientID,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Code, validation.When(isCodeGrant, validation.Required)),
		validation.Field(&r.CodeVerifier, validation.Length(0, 128)),
		validation.Field(&r.RefreshToken, validation.When(isRefreshGrant, validation.Required)),
	)
}

// ToGrant converts the request into the matching grant variant.
func (r *TokenRequest) ToGrant() (oauthDomain.Grant, error) {
	credentials := oauthDomain.ClientCredentials{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
	}

	switch oauthDomain.GrantType(r.GrantType) {
	case oauthDomain.GrantTypeAuthorizationCode:
		return oauthDomain.AuthorizationCodeGrant{
			ClientCredentials: credentials,
			Code:              r.Code,
			RedirectURI:       r.RedirectURI,
			CodeVerifier:      r.CodeVerifier,
		}, nil
	case oauthDomain.GrantTypeRefreshToken:
		return oauthDomain.RefreshTokenGrant{
			ClientCredentials: credentials,
			RefreshToken:      r.RefreshToken,
		}, nil
	default:
		return nil, oauthDomain.ErrUnsupportedGrantType
	}
}
