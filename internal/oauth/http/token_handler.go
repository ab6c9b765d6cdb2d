package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authserver/internal/httputil"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	"github.com/allisson/authserver/internal/oauth/http/dto"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
	customValidation "github.com/allisson/authserver/internal/validation"
)

// TokenHandler handles HTTP requests for the token endpoint.
type TokenHandler struct {
	tokenUseCase oauthUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(tokenUseCase oauthUseCase.TokenUseCase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// TokenHandler exchanges an authorization code or rotates a refresh token.
// POST /oauth/token - Clients authenticate with form fields or HTTP Basic.
// Returns 200 OK with a new access and refresh token pair.
func (h *TokenHandler) TokenHandler(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	var req dto.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := applyBasicAuth(c.Request, &req); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if !req.IsSupportedGrantType() {
		httputil.HandleErrorGin(c, oauthDomain.ErrUnsupportedGrantType, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	grant, err := req.ToGrant()
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.tokenUseCase.Exchange(c.Request.Context(), grant)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenOutputToResponse(output))
}

// applyBasicAuth copies HTTP Basic credentials into the request. Both parts are
// form-urlencoded per RFC 6749 section 2.3.1. A form client_id that disagrees with the
// Basic one is rejected.
func applyBasicAuth(r *http.Request, req *dto.TokenRequest) error {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil
	}

	clientID, err := url.QueryUnescape(username)
	if err != nil {
		return oauthDomain.ErrInvalidRequest.WithMessage("Malformed client credentials.")
	}
	clientSecret, err := url.QueryUnescape(password)
	if err != nil {
		return oauthDomain.ErrInvalidRequest.WithMessage("Malformed client credentials.")
	}

	if req.ClientID != "" && req.ClientID != clientID {
		return oauthDomain.ErrInvalidRequest.WithMessage("client_id does not match the Authorization header.")
	}

	req.ClientID = clientID
	req.ClientSecret = clientSecret
	return nil
}
