package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authserver/internal/database"
	apperrors "github.com/allisson/authserver/internal/errors"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthService "github.com/allisson/authserver/internal/oauth/service"
)

// TokenConfig holds token lifetimes and the access token prefix.
type TokenConfig struct {
	AccessTokenPrefix      string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
}

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	config          TokenConfig
	txManager       database.TxManager
	clientRepo      ClientRepository
	codeRepo        AuthorizationCodeRepository
	tokenRepo       TokenRepository
	secretService   oauthService.SecretService
	tokenService    oauthService.TokenService
	scopeResolver   *oauthDomain.ScopeResolver
	auditLogUseCase AuditLogUseCase
}

// issueParams describes the token pair to mint.
type issueParams struct {
	clientID       string
	subjectID      string
	scopes         []string
	familyID       uuid.UUID
	refreshTokenID uuid.UUID
	issuedAt       time.Time
}

// Exchange dispatches on the grant variant.
func (t *tokenUseCase) Exchange(ctx context.Context, grant oauthDomain.Grant) (*oauthDomain.TokenOutput, error) {
	switch g := grant.(type) {
	case oauthDomain.AuthorizationCodeGrant:
		return t.exchangeAuthorizationCode(ctx, g)
	case oauthDomain.RefreshTokenGrant:
		return t.exchangeRefreshToken(ctx, g)
	default:
		return nil, oauthDomain.ErrUnsupportedGrantType
	}
}

func (t *tokenUseCase) exchangeAuthorizationCode(
	ctx context.Context,
	grant oauthDomain.AuthorizationCodeGrant,
) (*oauthDomain.TokenOutput, error) {
	client, err := lookupClient(ctx, t.clientRepo, grant.ClientID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	code, err := t.codeRepo.GetByCodeHash(ctx, t.tokenService.HashToken(grant.Code))
	if err != nil {
		if errors.Is(err, oauthDomain.ErrAuthorizationCodeNotFound) {
			return nil, oauthDomain.ErrInvalidCode
		}
		return nil, apperrors.Wrap(err, "failed to get authorization code")
	}

	if code.ClientID != client.ID || code.IsConsumed() || code.IsExpired(now) {
		return nil, oauthDomain.ErrInvalidCode
	}

	if code.RedirectURI != grant.RedirectURI {
		return nil, oauthDomain.ErrRedirectURIMismatch
	}

	if err := t.authenticateCodeExchange(client, code, grant); err != nil {
		return nil, err
	}

	params := issueParams{
		clientID:       client.ID,
		subjectID:      code.SubjectID,
		scopes:         t.scopeResolver.Grant(code.Scopes),
		familyID:       uuid.Must(uuid.NewV7()),
		refreshTokenID: uuid.Must(uuid.NewV7()),
		issuedAt:       now,
	}

	var output *oauthDomain.TokenOutput
	err = t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := t.codeRepo.Consume(ctx, code.ID, now); err != nil {
			return err
		}

		var err error
		output, err = t.issueTokenPair(ctx, params)
		return err
	})
	if err != nil {
		if errors.Is(err, oauthDomain.ErrAuthorizationCodeAlreadyConsumed) {
			return nil, oauthDomain.ErrInvalidCode
		}
		return nil, apperrors.Wrap(err, "failed to exchange authorization code")
	}

	t.auditLogUseCase.Record(ctx, oauthDomain.AuditEventTokenIssued, client.ID, code.SubjectID, map[string]any{
		"family_id": params.familyID.String(),
		"scope":     output.Scope,
	})

	return output, nil
}

// authenticateCodeExchange checks the client secret for confidential clients and the
// PKCE verifier whenever the code carries a challenge. Public clients always need a
// valid verifier.
func (t *tokenUseCase) authenticateCodeExchange(
	client *oauthDomain.Client,
	code *oauthDomain.AuthorizationCode,
	grant oauthDomain.AuthorizationCodeGrant,
) error {
	if !client.PKCERequired() && !t.secretService.CompareSecret(grant.ClientSecret, client.SecretHash) {
		return oauthDomain.ErrInvalidClientSecret
	}

	if client.PKCERequired() || code.HasChallenge() {
		if !oauthDomain.VerifyCodeChallenge(grant.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
			return oauthDomain.ErrInvalidCodeVerifier
		}
	}

	return nil
}

func (t *tokenUseCase) exchangeRefreshToken(
	ctx context.Context,
	grant oauthDomain.RefreshTokenGrant,
) (*oauthDomain.TokenOutput, error) {
	client, err := lookupClient(ctx, t.clientRepo, grant.ClientID)
	if err != nil {
		return nil, err
	}

	// Public clients authenticate by possession of the refresh token.
	if !client.PKCERequired() && !t.secretService.CompareSecret(grant.ClientSecret, client.SecretHash) {
		return nil, oauthDomain.ErrInvalidClientSecret
	}

	now := time.Now().UTC()

	refreshToken, err := t.tokenRepo.GetRefreshTokenByHash(ctx, t.tokenService.HashToken(grant.RefreshToken))
	if err != nil {
		if errors.Is(err, oauthDomain.ErrStoredRefreshTokenNotFound) {
			return nil, oauthDomain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	if refreshToken.ClientID != client.ID || refreshToken.IsExpired(now) {
		return nil, oauthDomain.ErrRefreshTokenNotFound
	}

	if !refreshToken.IsHead() {
		return nil, t.handleReplay(ctx, refreshToken, now)
	}

	params := issueParams{
		clientID:       client.ID,
		subjectID:      refreshToken.SubjectID,
		scopes:         refreshToken.Scopes,
		familyID:       refreshToken.FamilyID,
		refreshTokenID: uuid.Must(uuid.NewV7()),
		issuedAt:       now,
	}

	var output *oauthDomain.TokenOutput
	err = t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := t.tokenRepo.SupersedeRefreshToken(ctx, refreshToken.ID, params.refreshTokenID); err != nil {
			return err
		}

		// Access tokens issued before the rotation stop working immediately.
		if _, err := t.tokenRepo.RevokeFamilyAccessTokens(ctx, refreshToken.FamilyID, now); err != nil {
			return err
		}

		var err error
		output, err = t.issueTokenPair(ctx, params)
		return err
	})
	if err != nil {
		if errors.Is(err, oauthDomain.ErrRefreshTokenAlreadyRotated) {
			return nil, t.handleReplay(ctx, refreshToken, now)
		}
		return nil, apperrors.Wrap(err, "failed to rotate refresh token")
	}

	t.auditLogUseCase.Record(
		ctx,
		oauthDomain.AuditEventTokenRefreshed,
		client.ID,
		refreshToken.SubjectID,
		map[string]any{
			"family_id":         refreshToken.FamilyID.String(),
			"previous_token_id": refreshToken.ID.String(),
		},
	)

	return output, nil
}

// handleReplay contains a replayed refresh token by revoking every live access token of
// its family and retiring the family head, then reports invalid_grant.
func (t *tokenUseCase) handleReplay(
	ctx context.Context,
	refreshToken *oauthDomain.RefreshToken,
	now time.Time,
) error {
	var revoked, retired int64
	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if revoked, err = t.tokenRepo.RevokeFamilyAccessTokens(ctx, refreshToken.FamilyID, now); err != nil {
			return err
		}
		retired, err = t.tokenRepo.RevokeFamilyRefreshTokens(ctx, refreshToken.FamilyID)
		return err
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke token family")
	}

	t.auditLogUseCase.Record(
		ctx,
		oauthDomain.AuditEventRefreshTokenReplay,
		refreshToken.ClientID,
		refreshToken.SubjectID,
		map[string]any{
			"family_id":              refreshToken.FamilyID.String(),
			"token_id":               refreshToken.ID.String(),
			"revoked_access_tokens":  revoked,
			"retired_refresh_tokens": retired,
		},
	)

	return oauthDomain.ErrRefreshTokenReplayed
}

// issueTokenPair mints and stores an access token and a refresh token of the same family.
func (t *tokenUseCase) issueTokenPair(ctx context.Context, params issueParams) (*oauthDomain.TokenOutput, error) {
	plainAccessToken, accessTokenHash, err := t.tokenService.GenerateToken(t.config.AccessTokenPrefix)
	if err != nil {
		return nil, err
	}

	plainRefreshToken, refreshTokenHash, err := t.tokenService.GenerateToken("")
	if err != nil {
		return nil, err
	}

	accessToken := &oauthDomain.AccessToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: accessTokenHash,
		ClientID:  params.clientID,
		SubjectID: params.subjectID,
		Scopes:    params.scopes,
		FamilyID:  params.familyID,
		IssuedAt:  params.issuedAt,
		ExpiresAt: params.issuedAt.Add(t.config.AccessTokenExpiration),
	}
	if err := t.tokenRepo.CreateAccessToken(ctx, accessToken); err != nil {
		return nil, err
	}

	refreshToken := &oauthDomain.RefreshToken{
		ID:        params.refreshTokenID,
		TokenHash: refreshTokenHash,
		ClientID:  params.clientID,
		SubjectID: params.subjectID,
		Scopes:    params.scopes,
		FamilyID:  params.familyID,
		IssuedAt:  params.issuedAt,
		ExpiresAt: params.issuedAt.Add(t.config.RefreshTokenExpiration),
	}
	if err := t.tokenRepo.CreateRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &oauthDomain.TokenOutput{
		AccessToken:  plainAccessToken,
		RefreshToken: plainRefreshToken,
		TokenType:    oauthDomain.TokenTypeBearer,
		ExpiresIn:    int64(t.config.AccessTokenExpiration / time.Second),
		Scope:        oauthDomain.JoinScope(params.scopes),
	}, nil
}

// Authenticate resolves a plain bearer token to a live access token.
func (t *tokenUseCase) Authenticate(ctx context.Context, plainToken string) (*oauthDomain.AccessToken, error) {
	if plainToken == "" {
		return nil, oauthDomain.ErrInvalidToken
	}

	accessToken, err := t.tokenRepo.GetAccessTokenByHash(ctx, t.tokenService.HashToken(plainToken))
	if err != nil {
		if errors.Is(err, oauthDomain.ErrAccessTokenNotFound) {
			return nil, oauthDomain.ErrInvalidToken
		}
		return nil, apperrors.Wrap(err, "failed to get access token")
	}

	if !accessToken.IsValid(time.Now().UTC()) {
		return nil, oauthDomain.ErrInvalidToken
	}

	return accessToken, nil
}

// CleanupExpired deletes authorization codes and tokens that expired more than days ago.
func (t *tokenUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "days must be a positive number, got: %d", days)
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)

	var total int64
	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		codes, err := t.codeRepo.DeleteExpired(ctx, olderThan, dryRun)
		if err != nil {
			return err
		}

		tokens, err := t.tokenRepo.DeleteExpired(ctx, olderThan, dryRun)
		if err != nil {
			return err
		}

		total = codes + tokens
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clean up expired tokens")
	}

	return total, nil
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config TokenConfig,
	txManager database.TxManager,
	clientRepo ClientRepository,
	codeRepo AuthorizationCodeRepository,
	tokenRepo TokenRepository,
	secretService oauthService.SecretService,
	tokenService oauthService.TokenService,
	scopeResolver *oauthDomain.ScopeResolver,
	auditLogUseCase AuditLogUseCase,
) TokenUseCase {
	return &tokenUseCase{
		config:          config,
		txManager:       txManager,
		clientRepo:      clientRepo,
		codeRepo:        codeRepo,
		tokenRepo:       tokenRepo,
		secretService:   secretService,
		tokenService:    tokenService,
		scopeResolver:   scopeResolver,
		auditLogUseCase: auditLogUseCase,
	}
}
