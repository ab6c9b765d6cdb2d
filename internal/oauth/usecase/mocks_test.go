package usecase

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// mockClientRepository is a mock implementation of ClientRepository for testing.
type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Create(ctx context.Context, client *oauthDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Update(ctx context.Context, client *oauthDomain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.Client), args.Error(1)
}

// mockAuthorizationCodeRepository is a mock implementation of AuthorizationCodeRepository for testing.
type mockAuthorizationCodeRepository struct {
	mock.Mock
}

func (m *mockAuthorizationCodeRepository) Create(ctx context.Context, code *oauthDomain.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *mockAuthorizationCodeRepository) GetByCodeHash(
	ctx context.Context,
	codeHash string,
) (*oauthDomain.AuthorizationCode, error) {
	args := m.Called(ctx, codeHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.AuthorizationCode), args.Error(1)
}

func (m *mockAuthorizationCodeRepository) Consume(ctx context.Context, codeID uuid.UUID, consumedAt time.Time) error {
	args := m.Called(ctx, codeID, consumedAt)
	return args.Error(0)
}

func (m *mockAuthorizationCodeRepository) DeleteExpired(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// mockTokenRepository is a mock implementation of TokenRepository for testing.
type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) CreateAccessToken(ctx context.Context, token *oauthDomain.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepository) GetAccessTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.AccessToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.AccessToken), args.Error(1)
}

func (m *mockTokenRepository) RevokeFamilyAccessTokens(
	ctx context.Context,
	familyID uuid.UUID,
	revokedAt time.Time,
) (int64, error) {
	args := m.Called(ctx, familyID, revokedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepository) RevokeFamilyRefreshTokens(ctx context.Context, familyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepository) CreateRefreshToken(ctx context.Context, token *oauthDomain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepository) GetRefreshTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauthDomain.RefreshToken), args.Error(1)
}

func (m *mockTokenRepository) SupersedeRefreshToken(
	ctx context.Context,
	tokenID uuid.UUID,
	supersededByID uuid.UUID,
) error {
	args := m.Called(ctx, tokenID, supersededByID)
	return args.Error(0)
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// mockAuditLogRepository is a mock implementation of AuditLogRepository for testing.
type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, auditLog *oauthDomain.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *mockAuditLogRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// mockSecretService is a mock implementation of SecretService for testing.
type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateClientID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// fakeSecretService hashes by prefixing, which keeps flow tests fast.
type fakeSecretService struct{}

func (fakeSecretService) GenerateClientID() (string, error) {
	return "cl_" + uuid.NewString(), nil
}

func (f fakeSecretService) GenerateSecret() (string, string, error) {
	plain := "cs_" + uuid.NewString()
	hashed, _ := f.HashSecret(plain)
	return plain, hashed, nil
}

func (fakeSecretService) HashSecret(plainSecret string) (string, error) {
	return "hashed:" + plainSecret, nil
}

func (fakeSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	if plainSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte("hashed:"+plainSecret), []byte(hashedSecret)) == 1
}

// mockTxManager runs the function inline without a database.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingAuditLog captures recorded events.
type recordingAuditLog struct {
	mu     sync.Mutex
	events []oauthDomain.AuditEvent
}

func (r *recordingAuditLog) Record(
	ctx context.Context,
	event oauthDomain.AuditEvent,
	clientID string,
	subjectID string,
	metadata map[string]any,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAuditLog) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	return 0, nil
}

func (r *recordingAuditLog) Events() []oauthDomain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]oauthDomain.AuditEvent(nil), r.events...)
}

// mockBusinessMetrics is a mock implementation of BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}
