package usecase

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthService "github.com/allisson/authserver/internal/oauth/service"
)

const (
	testRedirectURI        = "https://app.example.com/callback"
	testSubjectID          = "user_123"
	testConfidentialSecret = "cs_confidential_secret"
	testCodeVerifier       = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testCodeChallenge      = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

// flowFixture wires the authorize and token use cases over an in-memory store.
type flowFixture struct {
	store        *memoryStore
	audit        *recordingAuditLog
	tokenService oauthService.TokenService
	authorize    AuthorizeUseCase
	token        TokenUseCase
	confidential *oauthDomain.Client
	public       *oauthDomain.Client
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	store := newMemoryStore()
	audit := &recordingAuditLog{}
	tokenService := oauthService.NewTokenService()
	scopeResolver := oauthDomain.NewScopeResolver(oauthDomain.ScopeCatalog, oauthDomain.ScopeUserRead)

	clientRepo := memoryClientRepository{s: store}
	codeRepo := memoryCodeRepository{s: store}
	tokenRepo := memoryTokenRepository{s: store}

	now := time.Now().UTC()
	confidential := &oauthDomain.Client{
		ID:            "cl_confidential",
		Name:          "Confidential App",
		SecretHash:    "hashed:" + testConfidentialSecret,
		RedirectURIs:  []string{testRedirectURI, "https://app.example.com/cb?tenant=acme"},
		AllowedScopes: []string{oauthDomain.ScopeLinksRead, oauthDomain.ScopeLinksWrite},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	public := &oauthDomain.Client{
		ID:            "cl_public",
		Name:          "Public App",
		RedirectURIs:  []string{testRedirectURI},
		AllowedScopes: []string{oauthDomain.ScopeLinksRead},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, clientRepo.Create(context.Background(), confidential))
	require.NoError(t, clientRepo.Create(context.Background(), public))

	return &flowFixture{
		store:        store,
		audit:        audit,
		tokenService: tokenService,
		authorize: NewAuthorizeUseCase(
			clientRepo,
			codeRepo,
			tokenService,
			scopeResolver,
			audit,
			10*time.Minute,
		),
		token: NewTokenUseCase(
			TokenConfig{
				AccessTokenPrefix:      "oat_",
				AccessTokenExpiration:  2 * time.Hour,
				RefreshTokenExpiration: 30 * 24 * time.Hour,
			},
			mockTxManager{},
			clientRepo,
			codeRepo,
			tokenRepo,
			fakeSecretService{},
			tokenService,
			scopeResolver,
			audit,
		),
		confidential: confidential,
		public:       public,
	}
}

// issueCode runs a successful authorization and returns the plain code from the callback URL.
func (f *flowFixture) issueCode(t *testing.T, input *oauthDomain.AuthorizeInput) string {
	t.Helper()

	output, err := f.authorize.Authorize(context.Background(), input)
	require.NoError(t, err)

	callback, err := url.Parse(output.CallbackURL)
	require.NoError(t, err)

	code := callback.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func (f *flowFixture) confidentialAuthorizeInput() *oauthDomain.AuthorizeInput {
	return &oauthDomain.AuthorizeInput{
		ClientID:     f.confidential.ID,
		RedirectURI:  testRedirectURI,
		ResponseType: "code",
		Scope:        "links.read",
		State:        "xyz",
		SubjectID:    testSubjectID,
	}
}

func (f *flowFixture) publicAuthorizeInput() *oauthDomain.AuthorizeInput {
	return &oauthDomain.AuthorizeInput{
		ClientID:            f.public.ID,
		RedirectURI:         testRedirectURI,
		ResponseType:        "code",
		Scope:               "links.read",
		CodeChallenge:       testCodeChallenge,
		CodeChallengeMethod: oauthDomain.CodeChallengeMethodS256,
		SubjectID:           testSubjectID,
	}
}

func (f *flowFixture) confidentialCodeGrant(code string) oauthDomain.AuthorizationCodeGrant {
	return oauthDomain.AuthorizationCodeGrant{
		ClientCredentials: oauthDomain.ClientCredentials{
			ClientID:     f.confidential.ID,
			ClientSecret: testConfidentialSecret,
		},
		Code:        code,
		RedirectURI: testRedirectURI,
	}
}

func (f *flowFixture) publicCodeGrant(code string) oauthDomain.AuthorizationCodeGrant {
	return oauthDomain.AuthorizationCodeGrant{
		ClientCredentials: oauthDomain.ClientCredentials{ClientID: f.public.ID},
		Code:              code,
		RedirectURI:       testRedirectURI,
		CodeVerifier:      testCodeVerifier,
	}
}

func (f *flowFixture) confidentialRefreshGrant(refreshToken string) oauthDomain.RefreshTokenGrant {
	return oauthDomain.RefreshTokenGrant{
		ClientCredentials: oauthDomain.ClientCredentials{
			ClientID:     f.confidential.ID,
			ClientSecret: testConfidentialSecret,
		},
		RefreshToken: refreshToken,
	}
}
