package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

// memoryStore is an in-memory Token Store with the same conditional update semantics
// as the SQL repositories.
type memoryStore struct {
	mu            sync.Mutex
	clients       map[string]oauthDomain.Client
	codes         map[uuid.UUID]oauthDomain.AuthorizationCode
	accessTokens  map[uuid.UUID]oauthDomain.AccessToken
	refreshTokens map[uuid.UUID]oauthDomain.RefreshToken
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		clients:       make(map[string]oauthDomain.Client),
		codes:         make(map[uuid.UUID]oauthDomain.AuthorizationCode),
		accessTokens:  make(map[uuid.UUID]oauthDomain.AccessToken),
		refreshTokens: make(map[uuid.UUID]oauthDomain.RefreshToken),
	}
}

type memoryClientRepository struct{ s *memoryStore }

func (r memoryClientRepository) Create(ctx context.Context, client *oauthDomain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[client.ID] = *client
	return nil
}

func (r memoryClientRepository) Update(ctx context.Context, client *oauthDomain.Client) error {
	return r.Create(ctx, client)
}

func (r memoryClientRepository) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.clients[clientID]
	if !ok {
		return nil, oauthDomain.ErrClientNotFound
	}
	return &client, nil
}

type memoryCodeRepository struct{ s *memoryStore }

func (r memoryCodeRepository) Create(ctx context.Context, code *oauthDomain.AuthorizationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.codes[code.ID] = *code
	return nil
}

func (r memoryCodeRepository) GetByCodeHash(
	ctx context.Context,
	codeHash string,
) (*oauthDomain.AuthorizationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, code := range r.s.codes {
		if code.CodeHash == codeHash {
			return &code, nil
		}
	}
	return nil, oauthDomain.ErrAuthorizationCodeNotFound
}

func (r memoryCodeRepository) Consume(ctx context.Context, codeID uuid.UUID, consumedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.codes[codeID]
	if !ok || code.ConsumedAt != nil || !consumedAt.Before(code.ExpiresAt) {
		return oauthDomain.ErrAuthorizationCodeAlreadyConsumed
	}
	code.ConsumedAt = &consumedAt
	r.s.codes[codeID] = code
	return nil
}

func (r memoryCodeRepository) DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, code := range r.s.codes {
		if code.ExpiresAt.Before(olderThan) {
			count++
			if !dryRun {
				delete(r.s.codes, id)
			}
		}
	}
	return count, nil
}

type memoryTokenRepository struct{ s *memoryStore }

func (r memoryTokenRepository) CreateAccessToken(ctx context.Context, token *oauthDomain.AccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accessTokens[token.ID] = *token
	return nil
}

func (r memoryTokenRepository) GetAccessTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.AccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.accessTokens {
		if token.TokenHash == tokenHash {
			return &token, nil
		}
	}
	return nil, oauthDomain.ErrAccessTokenNotFound
}

func (r memoryTokenRepository) RevokeFamilyAccessTokens(
	ctx context.Context,
	familyID uuid.UUID,
	revokedAt time.Time,
) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, token := range r.s.accessTokens {
		if token.FamilyID == familyID && token.RevokedAt == nil {
			token.RevokedAt = &revokedAt
			r.s.accessTokens[id] = token
			count++
		}
	}
	return count, nil
}

func (r memoryTokenRepository) RevokeFamilyRefreshTokens(ctx context.Context, familyID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, token := range r.s.refreshTokens {
		if token.FamilyID == familyID && token.SupersededByTokenID == nil {
			self := id
			token.SupersededByTokenID = &self
			r.s.refreshTokens[id] = token
			count++
		}
	}
	return count, nil
}

func (r memoryTokenRepository) CreateRefreshToken(ctx context.Context, token *oauthDomain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refreshTokens[token.ID] = *token
	return nil
}

func (r memoryTokenRepository) GetRefreshTokenByHash(
	ctx context.Context,
	tokenHash string,
) (*oauthDomain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.refreshTokens {
		if token.TokenHash == tokenHash {
			return &token, nil
		}
	}
	return nil, oauthDomain.ErrStoredRefreshTokenNotFound
}

func (r memoryTokenRepository) SupersedeRefreshToken(
	ctx context.Context,
	tokenID uuid.UUID,
	supersededByID uuid.UUID,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.refreshTokens[tokenID]
	if !ok || token.SupersededByTokenID != nil {
		return oauthDomain.ErrRefreshTokenAlreadyRotated
	}
	token.SupersededByTokenID = &supersededByID
	r.s.refreshTokens[tokenID] = token
	return nil
}

func (r memoryTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, token := range r.s.accessTokens {
		if token.ExpiresAt.Before(olderThan) {
			count++
			if !dryRun {
				delete(r.s.accessTokens, id)
			}
		}
	}
	for id, token := range r.s.refreshTokens {
		if token.ExpiresAt.Before(olderThan) {
			count++
			if !dryRun {
				delete(r.s.refreshTokens, id)
			}
		}
	}
	return count, nil
}

// refreshHeads returns how many refresh tokens of the family are unsuperseded.
func (s *memoryStore) refreshHeads(familyID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	heads := 0
	for _, token := range s.refreshTokens {
		if token.FamilyID == familyID && token.SupersededByTokenID == nil {
			heads++
		}
	}
	return heads
}
