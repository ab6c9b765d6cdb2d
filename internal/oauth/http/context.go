package http

import (
	"context"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// accessTokenKey is a context key type for storing authenticated access tokens.
type accessTokenKey struct{}

// WithAccessToken stores an authenticated access token in the context.
func WithAccessToken(ctx context.Context, token *oauthDomain.AccessToken) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// GetAccessToken retrieves the access token stored by BearerAuthMiddleware.
// Returns (token, true) if a token is present, or (nil, false) if none was set.
func GetAccessToken(ctx context.Context) (*oauthDomain.AccessToken, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(*oauthDomain.AccessToken)
	return token, ok && token != nil
}
