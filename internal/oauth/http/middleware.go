package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authserver/internal/httputil"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
)

// BearerAuthMiddleware authenticates requests with an access token in the Authorization
// header ("Bearer <token>", case-insensitive scheme) and stores it in the request context.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 invalid_token
//   - Unknown, expired or revoked token → 401 invalid_token (from TokenUseCase.Authenticate)
//   - Other errors → 500 Internal Server Error
//
// Usage:
//
//	router.GET("/oauth/userinfo",
//	    BearerAuthMiddleware(tokenUseCase, logger),
//	    RequireScope("user.read", logger),
//	    handler)
func BearerAuthMiddleware(tokenUseCase oauthUseCase.TokenUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			httputil.HandleErrorGin(c, oauthDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		plainToken := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			httputil.HandleErrorGin(c, oauthDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		token, err := tokenUseCase.Authenticate(c.Request.Context(), plainToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			if errors.Is(err, oauthDomain.ErrInvalidToken) {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithAccessToken(c.Request.Context(), token))

		logger.Debug("authentication successful",
			slog.String("client_id", token.ClientID),
			slog.String("family_id", token.FamilyID.String()))

		c.Next()
	}
}

// RequireScope rejects requests whose access token lacks scope. It must run after
// BearerAuthMiddleware.
func RequireScope(scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := GetAccessToken(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no access token in context")
			httputil.HandleErrorGin(c, oauthDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		if !token.HasScope(scope) {
			logger.Debug("authorization failed: insufficient scope",
				slog.String("client_id", token.ClientID),
				slog.String("required_scope", scope))
			c.Header("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
			httputil.HandleErrorGin(c, oauthDomain.ErrInsufficientScope, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
