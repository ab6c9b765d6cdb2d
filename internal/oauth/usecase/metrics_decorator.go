package usecase

import (
	"context"
	"time"

	"github.com/allisson/authserver/internal/metrics"
	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

const metricsDomain = "oauth"

// clientUseCaseWithMetrics decorates ClientUseCase with metrics instrumentation.
type clientUseCaseWithMetrics struct {
	next    ClientUseCase
	metrics metrics.BusinessMetrics
}

// NewClientUseCaseWithMetrics wraps a ClientUseCase with metrics recording.
func NewClientUseCaseWithMetrics(useCase ClientUseCase, m metrics.BusinessMetrics) ClientUseCase {
	return &clientUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for client creation operations.
func (c *clientUseCaseWithMetrics) Create(
	ctx context.Context,
	createClientInput *oauthDomain.CreateClientInput,
) (*oauthDomain.CreateClientOutput, error) {
	start := time.Now()
	output, err := c.next.Create(ctx, createClientInput)
	record(ctx, c.metrics, "client_create", start, err)
	return output, err
}

// Update records metrics for client update operations.
func (c *clientUseCaseWithMetrics) Update(
	ctx context.Context,
	clientID string,
	updateClientInput *oauthDomain.UpdateClientInput,
) error {
	start := time.Now()
	err := c.next.Update(ctx, clientID, updateClientInput)
	record(ctx, c.metrics, "client_update", start, err)
	return err
}

// Get records metrics for client retrieval operations.
func (c *clientUseCaseWithMetrics) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	start := time.Now()
	client, err := c.next.Get(ctx, clientID)
	record(ctx, c.metrics, "client_get", start, err)
	return client, err
}

// authorizeUseCaseWithMetrics decorates AuthorizeUseCase with metrics instrumentation.
type authorizeUseCaseWithMetrics struct {
	next    AuthorizeUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorizeUseCaseWithMetrics wraps an AuthorizeUseCase with metrics recording.
func NewAuthorizeUseCaseWithMetrics(useCase AuthorizeUseCase, m metrics.BusinessMetrics) AuthorizeUseCase {
	return &authorizeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authorize records metrics for authorization code issuance.
func (a *authorizeUseCaseWithMetrics) Authorize(
	ctx context.Context,
	input *oauthDomain.AuthorizeInput,
) (*oauthDomain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.Authorize(ctx, input)
	record(ctx, a.metrics, "authorize", start, err)
	return output, err
}

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Exchange records metrics per grant type.
func (t *tokenUseCaseWithMetrics) Exchange(
	ctx context.Context,
	grant oauthDomain.Grant,
) (*oauthDomain.TokenOutput, error) {
	operation := "token_exchange"
	if grant != nil && grant.GrantType() == oauthDomain.GrantTypeRefreshToken {
		operation = "token_refresh"
	}

	start := time.Now()
	output, err := t.next.Exchange(ctx, grant)
	record(ctx, t.metrics, operation, start, err)
	return output, err
}

// Authenticate records metrics for bearer token validation.
func (t *tokenUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	plainToken string,
) (*oauthDomain.AccessToken, error) {
	start := time.Now()
	accessToken, err := t.next.Authenticate(ctx, plainToken)
	record(ctx, t.metrics, "token_authenticate", start, err)
	return accessToken, err
}

// CleanupExpired records metrics for expired token cleanup.
func (t *tokenUseCaseWithMetrics) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := t.next.CleanupExpired(ctx, days, dryRun)
	record(ctx, t.metrics, "token_cleanup", start, err)
	return count, err
}

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := operationStatus(err)
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}
