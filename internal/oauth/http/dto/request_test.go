package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

func TestAuthorizeRequest_Validate(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		req := AuthorizeRequest{
			ClientID:     "cl_abc",
			RedirectURI:  "https://app.example.com/callback",
			ResponseType: "code",
			Scope:        "links.read",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Success_SemanticFieldsLeftToUseCase", func(t *testing.T) {
		req := AuthorizeRequest{ClientID: "cl_abc", ResponseType: "token", CodeChallengeMethod: "plain"}
		assert.NoError(t, req.Validate())
	})

	t.Run("Success_LongClientIDLeftToUseCase", func(t *testing.T) {
		req := AuthorizeRequest{ClientID: strings.Repeat("c", 200)}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingClientID", func(t *testing.T) {
		req := AuthorizeRequest{RedirectURI: "https://app.example.com/callback"}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client_id")
	})

	t.Run("Error_ClientIDWithWhitespace", func(t *testing.T) {
		req := AuthorizeRequest{ClientID: " cl_abc"}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_StateTooLong", func(t *testing.T) {
		req := AuthorizeRequest{ClientID: "cl_abc", State: strings.Repeat("s", 1025)}
		assert.Error(t, req.Validate())
	})
}

func TestAuthorizeRequest_ToInput(t *testing.T) {
	req := AuthorizeRequest{
		ClientID:            "cl_abc",
		RedirectURI:         "https://app.example.com/callback",
		ResponseType:        "code",
		Scope:               "links.read",
		State:               "xyz",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
	}

	input := req.ToInput("user_123")

	assert.Equal(t, &oauthDomain.AuthorizeInput{
		ClientID:            "cl_abc",
		RedirectURI:         "https://app.example.com/callback",
		ResponseType:        "code",
		Scope:               "links.read",
		State:               "xyz",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		SubjectID:           "user_123",
	}, input)
}

func TestTokenRequest_IsSupportedGrantType(t *testing.T) {
	tests := []struct {
		grantType string
		expected  bool
	}{
		{grantType: "authorization_code", expected: true},
		{grantType: "refresh_token", expected: true},
		{grantType: "client_credentials", expected: false},
		{grantType: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.grantType, func(t *testing.T) {
			req := TokenRequest{GrantType: tt.grantType}
			assert.Equal(t, tt.expected, req.IsSupportedGrantType())
		})
	}
}

func TestTokenRequest_Validate(t *testing.T) {
	t.Run("Success_AuthorizationCode", func(t *testing.T) {
		req := TokenRequest{
			GrantType:   "authorization_code",
			ClientID:    "cl_abc",
			Code:        "code",
			RedirectURI: "https://app.example.com/callback",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("Success_RefreshToken", func(t *testing.T) {
		req := TokenRequest{GrantType: "refresh_token", ClientID: "cl_abc", RefreshToken: "rt"}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_AuthorizationCodeMissingCode", func(t *testing.T) {
		req := TokenRequest{
			GrantType:   "authorization_code",
			ClientID:    "cl_abc",
			RedirectURI: "https://app.example.com/callback",
		}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code")
	})

	t.Run("Success_AuthorizationCodeWithoutRedirectURI", func(t *testing.T) {
		req := TokenRequest{GrantType: "authorization_code", ClientID: "cl_abc", Code: "code"}
		assert.NoError(t, req.Validate())
	})

	t.Run("Success_LongClientIDLeftToUseCase", func(t *testing.T) {
		req := TokenRequest{GrantType: "refresh_token", ClientID: strings.Repeat("c", 200), RefreshToken: "rt"}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_RefreshTokenMissing", func(t *testing.T) {
		req := TokenRequest{GrantType: "refresh_token", ClientID: "cl_abc"}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refresh_token")
	})

	t.Run("Error_MissingClientID", func(t *testing.T) {
		req := TokenRequest{GrantType: "refresh_token", RefreshToken: "rt"}
		assert.Error(t, req.Validate())
	})

	t.Run("Error_VerifierTooLong", func(t *testing.T) {
		req := TokenRequest{
			GrantType:    "authorization_code",
			ClientID:     "cl_abc",
			Code:         "code",
			RedirectURI:  "https://app.example.com/callback",
			CodeVerifier: strings.Repeat("v", 129),
		}
		assert.Error(t, req.Validate())
	})
}

func TestTokenRequest_ToGrant(t *testing.T) {
	t.Run("Success_AuthorizationCode", func(t *testing.T) {
		req := TokenRequest{
			GrantType:    "authorization_code",
			ClientID:     "cl_abc",
			ClientSecret: "secret",
			Code:         "code",
			RedirectURI:  "https://app.example.com/callback",
			CodeVerifier: "verifier",
		}

		grant, err := req.ToGrant()
		require.NoError(t, err)

		codeGrant, ok := grant.(oauthDomain.AuthorizationCodeGrant)
		require.True(t, ok)
		assert.Equal(t, "cl_abc", codeGrant.ClientID)
		assert.Equal(t, "secret", codeGrant.ClientSecret)
		assert.Equal(t, "code", codeGrant.Code)
		assert.Equal(t, "https://app.example.com/callback", codeGrant.RedirectURI)
		assert.Equal(t, "verifier", codeGrant.CodeVerifier)
	})

	t.Run("Success_RefreshToken", func(t *testing.T) {
		req := TokenRequest{GrantType: "refresh_token", ClientID: "cl_abc", RefreshToken: "rt"}

		grant, err := req.ToGrant()
		require.NoError(t, err)

		refreshGrant, ok := grant.(oauthDomain.RefreshTokenGrant)
		require.True(t, ok)
		assert.Equal(t, oauthDomain.GrantTypeRefreshToken, refreshGrant.GrantType())
		assert.Equal(t, "rt", refreshGrant.RefreshToken)
		assert.Equal(t, "cl_abc", refreshGrant.Credentials().ClientID)
	})

	t.Run("Error_UnsupportedGrantType", func(t *testing.T) {
		req := TokenRequest{GrantType: "password"}

		grant, err := req.ToGrant()
		assert.Nil(t, grant)
		assert.ErrorIs(t, err, oauthDomain.ErrUnsupportedGrantType)
	})
}
