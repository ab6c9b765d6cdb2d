package usecase

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthService "github.com/allisson/authserver/internal/oauth/service"
)

const responseTypeCode = "code"

// authorizeUseCase implements AuthorizeUseCase.
type authorizeUseCase struct {
	clientRepo      ClientRepository
	codeRepo        AuthorizationCodeRepository
	tokenService    oauthService.TokenService
	scopeResolver   *oauthDomain.ScopeResolver
	auditLogUseCase AuditLogUseCase
	codeExpiration  time.Duration
}

// Authorize validates the request and issues a single-use authorization code. The
// redirect URI is verified before anything else is reported through it.
func (a *authorizeUseCase) Authorize(
	ctx context.Context,
	input *oauthDomain.AuthorizeInput,
) (*oauthDomain.AuthorizeOutput, error) {
	if input.SubjectID == "" {
		return nil, oauthDomain.ErrMissingSubject
	}

	client, err := lookupClient(ctx, a.clientRepo, input.ClientID)
	if err != nil {
		return nil, err
	}

	if !client.HasRedirectURI(input.RedirectURI) {
		return nil, oauthDomain.ErrInvalidRedirectURI
	}

	if input.ResponseType != responseTypeCode {
		return nil, oauthDomain.ErrUnsupportedResponseType
	}

	if err := validatePKCEParams(client, input.CodeChallenge, input.CodeChallengeMethod); err != nil {
		return nil, err
	}

	scopes, err := a.scopeResolver.Resolve(input.Scope, client.AllowedScopes)
	if err != nil {
		return nil, err
	}

	plainCode, codeHash, err := a.tokenService.GenerateToken("")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	code := &oauthDomain.AuthorizationCode{
		ID:                  uuid.Must(uuid.NewV7()),
		CodeHash:            codeHash,
		ClientID:            client.ID,
		SubjectID:           input.SubjectID,
		RedirectURI:         input.RedirectURI,
		Scopes:              scopes,
		CodeChallenge:       input.CodeChallenge,
		CodeChallengeMethod: input.CodeChallengeMethod,
		CreatedAt:           now,
		ExpiresAt:           now.Add(a.codeExpiration),
	}

	if err := a.codeRepo.Create(ctx, code); err != nil {
		return nil, apperrors.Wrap(err, "failed to create authorization code")
	}

	a.auditLogUseCase.Record(
		ctx,
		oauthDomain.AuditEventAuthorizationCodeIssued,
		client.ID,
		input.SubjectID,
		map[string]any{
			"scope": oauthDomain.JoinScope(scopes),
			"pkce":  code.HasChallenge(),
		},
	)

	return &oauthDomain.AuthorizeOutput{
		CallbackURL: buildCallbackURL(input.RedirectURI, plainCode, input.State),
	}, nil
}

// validatePKCEParams requires challenge and method together, mandatory for public clients,
// and restricts the method to S256.
func validatePKCEParams(client *oauthDomain.Client, challenge, method string) error {
	if challenge == "" && method == "" {
		if client.PKCERequired() {
			return oauthDomain.ErrMissingPKCEParams
		}
		return nil
	}

	if challenge == "" || method == "" {
		return oauthDomain.ErrMissingPKCEParams
	}

	if method != oauthDomain.CodeChallengeMethodS256 {
		return oauthDomain.ErrUnsupportedChallengeMethod
	}

	// An S256 challenge is a base64url digest, which shares the verifier alphabet.
	if !oauthDomain.IsValidCodeVerifier(challenge) {
		return oauthDomain.ErrInvalidRequest.WithMessage("Invalid code_challenge.")
	}

	return nil
}

// buildCallbackURL appends code and state to the registered redirect URI.
func buildCallbackURL(redirectURI, code, state string) string {
	var b strings.Builder
	b.WriteString(redirectURI)
	if strings.Contains(redirectURI, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("code=")
	b.WriteString(code)
	if state != "" {
		b.WriteString("&state=")
		b.WriteString(url.QueryEscape(state))
	}
	return b.String()
}

// NewAuthorizeUseCase creates a new AuthorizeUseCase with the provided dependencies.
func NewAuthorizeUseCase(
	clientRepo ClientRepository,
	codeRepo AuthorizationCodeRepository,
	tokenService oauthService.TokenService,
	scopeResolver *oauthDomain.ScopeResolver,
	auditLogUseCase AuditLogUseCase,
	codeExpiration time.Duration,
) AuthorizeUseCase {
	return &authorizeUseCase{
		clientRepo:      clientRepo,
		codeRepo:        codeRepo,
		tokenService:    tokenService,
		scopeResolver:   scopeResolver,
		auditLogUseCase: auditLogUseCase,
		codeExpiration:  codeExpiration,
	}
}
