// Package integration provides end-to-end tests that drive the authorization server with a
// standard OAuth 2.0 client against both PostgreSQL and MySQL databases.
package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/allisson/authserver/internal/app"
	"github.com/allisson/authserver/internal/config"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	"github.com/allisson/authserver/internal/testutil"
)

const (
	testRedirectURI = "https://app.example.com/callback"
	testSubject     = "user_42"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// setupIntegrationTest migrates a clean database and serves the container's router.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:                    dbDriver,
		DBConnectionString:          dsn,
		DBMaxOpenConnections:        10,
		DBMaxIdleConnections:        5,
		DBConnMaxLifetime:           time.Hour,
		ServerHost:                  "localhost",
		ServerPort:                  8080,
		LogLevel:                    "error",
		AccessTokenPrefix:           "oat_",
		AccessTokenExpiration:       time.Hour,
		RefreshTokenExpiration:      24 * time.Hour,
		AuthorizationCodeExpiration: time.Minute,
		BaselineScope:               oauthDomain.ScopeUserRead,
		SubjectHeader:               "X-Subject-Id",
		MetricsEnabled:              false,
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// registerClient creates a client through the use case and returns an oauth2 config for it.
func (ctx *integrationTestContext) registerClient(t *testing.T, public bool) *oauth2.Config {
	t.Helper()

	clientUseCase, err := ctx.container.ClientUseCase()
	require.NoError(t, err)

	output, err := clientUseCase.Create(context.Background(), &oauthDomain.CreateClientInput{
		Name:          "Integration Test App",
		RedirectURIs:  []string{testRedirectURI},
		AllowedScopes: []string{"links.read", "links.write"},
		Public:        public,
	})
	require.NoError(t, err)

	authStyle := oauth2.AuthStyleInHeader
	if public {
		require.Empty(t, output.PlainSecret)
		authStyle = oauth2.AuthStyleInParams
	}

	return &oauth2.Config{
		ClientID:     output.ID,
		ClientSecret: output.PlainSecret,
		RedirectURL:  testRedirectURI,
		Scopes:       []string{"links.read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   ctx.server.URL + "/oauth/authorize",
			TokenURL:  ctx.server.URL + "/oauth/token",
			AuthStyle: authStyle,
		},
	}
}

// authorize posts the parameters of the client's authorization URL on behalf of the
// subject and returns the code from the callback URL.
func (ctx *integrationTestContext) authorize(t *testing.T, conf *oauth2.Config, state, verifier string) string {
	t.Helper()

	authURL, err := url.Parse(conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)))
	require.NoError(t, err)

	req, err := http.NewRequest(
		http.MethodPost,
		ctx.server.URL+"/oauth/authorize",
		strings.NewReader(authURL.Query().Encode()),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Subject-Id", testSubject)

	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := ctx.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var response struct {
		CallbackURL string `json:"callbackUrl"`
	}
	require.NoError(t, json.Unmarshal(body, &response))

	callback, err := url.Parse(response.CallbackURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(response.CallbackURL, testRedirectURI+"?"))
	assert.Equal(t, state, callback.Query().Get("state"))

	code := callback.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

// clientContext makes the oauth2 package use the test server's client.
func (ctx *integrationTestContext) clientContext() context.Context {
	return context.WithValue(context.Background(), oauth2.HTTPClient, ctx.server.Client())
}

// userInfoStatus calls the protected endpoint with the given access token.
func (ctx *integrationTestContext) userInfoStatus(t *testing.T, conf *oauth2.Config, token *oauth2.Token) int {
	t.Helper()

	client := conf.Client(ctx.clientContext(), token)
	resp, err := client.Get(ctx.server.URL + "/oauth/userinfo")
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func runForEachDatabase(t *testing.T, fn func(t *testing.T, ctx *integrationTestContext)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testCases := []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			fn(t, ctx)
		})
	}
}

func TestIntegration_Health_BasicChecks(t *testing.T) {
	runForEachDatabase(t, func(t *testing.T, ctx *integrationTestContext) {
		resp, err := ctx.server.Client().Get(ctx.server.URL + "/health")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = ctx.server.Client().Get(ctx.server.URL + "/ready")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
		assert.Equal(t, "ready", response["status"])
	})
}

// TestIntegration_AuthorizationCode_CompleteFlow drives authorize, code exchange, the
// protected endpoint, refresh rotation and replay detection with golang.org/x/oauth2.
func TestIntegration_AuthorizationCode_CompleteFlow(t *testing.T) {
	runForEachDatabase(t, func(t *testing.T, ctx *integrationTestContext) {
		conf := ctx.registerClient(t, false)
		verifier := oauth2.GenerateVerifier()

		var first *oauth2.Token

		t.Run("01_ExchangeCode", func(t *testing.T) {
			code := ctx.authorize(t, conf, "xyz", verifier)

			token, err := conf.Exchange(ctx.clientContext(), code, oauth2.VerifierOption(verifier))
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(token.AccessToken, "oat_"))
			assert.NotEmpty(t, token.RefreshToken)
			assert.Equal(t, "Bearer", token.TokenType)
			assert.Equal(t, "links.read user.read", token.Extra("scope"))
			first = token
		})
		require.NotNil(t, first)

		t.Run("02_CodeIsSingleUse", func(t *testing.T) {
			code := ctx.authorize(t, conf, "abc", verifier)

			_, err := conf.Exchange(ctx.clientContext(), code, oauth2.VerifierOption(verifier))
			require.NoError(t, err)

			_, err = conf.Exchange(ctx.clientContext(), code, oauth2.VerifierOption(verifier))
			var retrieveErr *oauth2.RetrieveError
			require.True(t, errors.As(err, &retrieveErr))
			assert.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)
		})

		t.Run("03_WrongVerifierRejected", func(t *testing.T) {
			code := ctx.authorize(t, conf, "def", verifier)

			_, err := conf.Exchange(ctx.clientContext(), code, oauth2.VerifierOption(oauth2.GenerateVerifier()))
			var retrieveErr *oauth2.RetrieveError
			require.True(t, errors.As(err, &retrieveErr))
			assert.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)
		})

		t.Run("04_UserInfo", func(t *testing.T) {
			client := conf.Client(ctx.clientContext(), first)
			resp, err := client.Get(ctx.server.URL + "/oauth/userinfo")
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var response map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
			assert.Equal(t, testSubject, response["sub"])
			assert.Equal(t, conf.ClientID, response["client_id"])
		})

		var rotated *oauth2.Token

		t.Run("05_RefreshRotates", func(t *testing.T) {
			source := conf.TokenSource(ctx.clientContext(), &oauth2.Token{RefreshToken: first.RefreshToken})
			token, err := source.Token()
			require.NoError(t, err)

			assert.NotEqual(t, first.AccessToken, token.AccessToken)
			assert.NotEqual(t, first.RefreshToken, token.RefreshToken)
			rotated = token
		})
		require.NotNil(t, rotated)

		t.Run("06_ReplayRevokesFamily", func(t *testing.T) {
			source := conf.TokenSource(ctx.clientContext(), &oauth2.Token{RefreshToken: first.RefreshToken})
			_, err := source.Token()

			var retrieveErr *oauth2.RetrieveError
			require.True(t, errors.As(err, &retrieveErr))
			assert.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)

			assert.Equal(t, http.StatusUnauthorized, ctx.userInfoStatus(t, conf, rotated))

			source = conf.TokenSource(ctx.clientContext(), &oauth2.Token{RefreshToken: rotated.RefreshToken})
			_, err = source.Token()
			require.True(t, errors.As(err, &retrieveErr))
			assert.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)
		})
	})
}

// TestIntegration_PublicClient_RequiresPKCE verifies that public clients authenticate with
// the code verifier alone and cannot skip PKCE.
func TestIntegration_PublicClient_RequiresPKCE(t *testing.T) {
	runForEachDatabase(t, func(t *testing.T, ctx *integrationTestContext) {
		conf := ctx.registerClient(t, true)

		t.Run("01_MissingChallenge", func(t *testing.T) {
			form := url.Values{
				"response_type": {"code"},
				"client_id":     {conf.ClientID},
				"redirect_uri":  {testRedirectURI},
				"scope":         {"links.read"},
			}
			req, err := http.NewRequest(
				http.MethodPost,
				ctx.server.URL+"/oauth/authorize",
				strings.NewReader(form.Encode()),
			)
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("X-Subject-Id", testSubject)

			//nolint:gosec // controlled test environment with localhost URLs
			resp, err := ctx.server.Client().Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var response struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
			assert.Equal(t, "missing_pkce_params", response.Error.Code)
		})

		t.Run("02_ExchangeWithVerifier", func(t *testing.T) {
			verifier := oauth2.GenerateVerifier()
			code := ctx.authorize(t, conf, "state-1", verifier)

			token, err := conf.Exchange(ctx.clientContext(), code, oauth2.VerifierOption(verifier))
			require.NoError(t, err)
			assert.NotEmpty(t, token.AccessToken)
			assert.Equal(t, http.StatusOK, ctx.userInfoStatus(t, conf, token))
		})
	})
}
