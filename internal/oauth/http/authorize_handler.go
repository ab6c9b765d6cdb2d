// Package http provides the HTTP handlers and middleware of the authorization server:
// the authorize and token endpoints, bearer token authentication and the userinfo endpoint.
package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authserver/internal/httputil"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	"github.com/allisson/authserver/internal/oauth/http/dto"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
	customValidation "github.com/allisson/authserver/internal/validation"
)

// AuthorizeHandler handles authorization requests forwarded by the consent UI.
type AuthorizeHandler struct {
	authorizeUseCase oauthUseCase.AuthorizeUseCase
	subjectHeader    string
	logger           *slog.Logger
}

// NewAuthorizeHandler creates a new authorize handler. subjectHeader names the trusted
// header carrying the authenticated end user.
func NewAuthorizeHandler(
	authorizeUseCase oauthUseCase.AuthorizeUseCase,
	subjectHeader string,
	logger *slog.Logger,
) *AuthorizeHandler {
	return &AuthorizeHandler{
		authorizeUseCase: authorizeUseCase,
		subjectHeader:    subjectHeader,
		logger:           logger,
	}
}

// AuthorizeHandler issues an authorization code.
// POST /oauth/authorize - Requires the subject header set by the consent UI.
// Returns 200 OK with the callback URL carrying the code and state.
func (h *AuthorizeHandler) AuthorizeHandler(c *gin.Context) {
	subjectID := strings.TrimSpace(c.GetHeader(h.subjectHeader))
	if subjectID == "" {
		httputil.HandleErrorGin(c, oauthDomain.ErrMissingSubject, h.logger)
		return
	}

	var req dto.AuthorizeRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.authorizeUseCase.Authorize(c.Request.Context(), req.ToInput(subjectID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AuthorizeResponse{CallbackURL: output.CallbackURL})
}
