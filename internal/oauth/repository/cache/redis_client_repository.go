// Package cache provides a Redis read-through cache in front of the client registry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
)

const clientKeyPrefix = "oauth:client:"

// RedisCmdable is the subset of redis.Cmdable used by the cache.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ClientRepository is the backing client store.
type ClientRepository interface {
	Create(ctx context.Context, client *oauthDomain.Client) error
	Update(ctx context.Context, client *oauthDomain.Client) error
	Get(ctx context.Context, clientID string) (*oauthDomain.Client, error)
}

// cachedClient is the JSON representation stored in Redis.
type cachedClient struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SecretHash    string    `json:"secret_hash"` //nolint:gosec // Argon2id hash, never the plain secret
	RedirectURIs  []string  `json:"redirect_uris"`
	AllowedScopes []string  `json:"allowed_scopes"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RedisClientRepository caches client registrations in Redis. Writes go to the backing
// store and invalidate the cached entry. Redis failures are logged and fall back to the
// backing store.
//
// Every write bumps a per-key generation. A load that overlapped a write drops the entry
// it cached, so a stale row never outlives the invalidation.
type RedisClientRepository struct {
	next   ClientRepository
	redis  RedisCmdable
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// Create stores the client and drops any stale cache entry.
func (r *RedisClientRepository) Create(ctx context.Context, client *oauthDomain.Client) error {
	if err := r.next.Create(ctx, client); err != nil {
		return err
	}
	r.invalidate(ctx, client.ID)
	return nil
}

// Update stores the client and drops the cache entry so deactivation takes effect at once.
func (r *RedisClientRepository) Update(ctx context.Context, client *oauthDomain.Client) error {
	if err := r.next.Update(ctx, client); err != nil {
		return err
	}
	r.invalidate(ctx, client.ID)
	return nil
}

// Get returns the cached client or loads it from the backing store. Concurrent misses for
// the same client share one load.
func (r *RedisClientRepository) Get(ctx context.Context, clientID string) (*oauthDomain.Client, error) {
	key := clientKeyPrefix + clientID

	if client, ok := r.lookup(ctx, key); ok {
		return client, nil
	}

	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		// The flight is shared, so one caller's cancellation must not fail the others.
		ctx := context.WithoutCancel(ctx)

		generation := r.generation(key)
		client, err := r.next.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if r.generation(key) != generation {
			return client, nil
		}

		r.store(ctx, key, client)
		if r.generation(key) != generation {
			r.drop(ctx, key)
		}
		return client, nil
	})
	if err != nil {
		return nil, err
	}

	return cloneClient(result.(*oauthDomain.Client)), nil
}

func (r *RedisClientRepository) lookup(ctx context.Context, key string) (*oauthDomain.Client, bool) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("failed to read client from cache", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	var cached cachedClient
	if err := json.Unmarshal(data, &cached); err != nil {
		r.logger.Warn("failed to decode cached client", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	return &oauthDomain.Client{
		ID:            cached.ID,
		Name:          cached.Name,
		SecretHash:    cached.SecretHash,
		RedirectURIs:  cached.RedirectURIs,
		AllowedScopes: cached.AllowedScopes,
		IsActive:      cached.IsActive,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.UpdatedAt,
	}, true
}

func (r *RedisClientRepository) store(ctx context.Context, key string, client *oauthDomain.Client) {
	data, err := json.Marshal(cachedClient{
		ID:            client.ID,
		Name:          client.Name,
		SecretHash:    client.SecretHash,
		RedirectURIs:  client.RedirectURIs,
		AllowedScopes: client.AllowedScopes,
		IsActive:      client.IsActive,
		CreatedAt:     client.CreatedAt,
		UpdatedAt:     client.UpdatedAt,
	})
	if err != nil {
		r.logger.Warn("failed to encode client for cache", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to write client to cache", slog.String("key", key), slog.Any("error", err))
	}
}

func (r *RedisClientRepository) invalidate(ctx context.Context, clientID string) {
	key := clientKeyPrefix + clientID

	r.mu.Lock()
	r.generations[key]++
	r.mu.Unlock()

	r.group.Forget(key)
	r.drop(ctx, key)
}

func (r *RedisClientRepository) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[key]
}

func (r *RedisClientRepository) drop(ctx context.Context, key string) {
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("failed to invalidate cached client", slog.String("key", key), slog.Any("error", err))
	}
}

// cloneClient copies a client shared between singleflight callers.
func cloneClient(client *oauthDomain.Client) *oauthDomain.Client {
	clone := *client
	clone.RedirectURIs = slices.Clone(client.RedirectURIs)
	clone.AllowedScopes = slices.Clone(client.AllowedScopes)
	return &clone
}

// NewRedisClientRepository wraps next with a Redis cache holding entries for ttl.
func NewRedisClientRepository(
	next ClientRepository,
	redisClient RedisCmdable,
	ttl time.Duration,
	logger *slog.Logger,
) *RedisClientRepository {
	return &RedisClientRepository{
		next:        next,
		redis:       redisClient,
		ttl:         ttl,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}
