package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authserver/internal/httputil"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	"github.com/allisson/authserver/internal/oauth/http/dto"
)

// UserInfoHandler answers "who am I" for a bearer token.
type UserInfoHandler struct {
	logger *slog.Logger
}

// NewUserInfoHandler creates a new userinfo handler.
func NewUserInfoHandler(logger *slog.Logger) *UserInfoHandler {
	return &UserInfoHandler{logger: logger}
}

// UserInfoHandler returns the subject, client and scope of the access token.
// GET /oauth/userinfo - Requires a bearer token carrying the baseline scope.
func (h *UserInfoHandler) UserInfoHandler(c *gin.Context) {
	token, ok := GetAccessToken(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, oauthDomain.ErrInvalidToken, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessTokenToUserInfo(token))
}
