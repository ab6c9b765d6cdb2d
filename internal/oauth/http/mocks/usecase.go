// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// MockAuthorizeUseCase is a mock implementation of AuthorizeUseCase for testing.
type MockAuthorizeUseCase struct {
	mock.Mock
}

// Authorize mocks the Authorize method of AuthorizeUseCase.
func (m *MockAuthorizeUseCase) Authorize(
	ctx context.Context,
	input *oauthDomain.AuthorizeInput,
) (*oauthDomain.AuthorizeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.AuthorizeOutput), args.Error(1)
}

// MockTokenUseCase is a mock implementation of TokenUseCase for testing.
type MockTokenUseCase struct {
	mock.Mock
}

// Exchange mocks the Exchange method of TokenUseCase.
func (m *MockTokenUseCase) Exchange(
	ctx context.Context,
	grant oauthDomain.Grant,
) (*oauthDomain.TokenOutput, error) {
	args := m.Called(ctx, grant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.TokenOutput), args.Error(1)
}

// Authenticate mocks the Authenticate method of TokenUseCase.
func (m *MockTokenUseCase) Authenticate(ctx context.Context, plainToken string) (*oauthDomain.AccessToken, error) {
	args := m.Called(ctx, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.AccessToken), args.Error(1)
}

// CleanupExpired mocks the CleanupExpired method of TokenUseCase.
func (m *MockTokenUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
