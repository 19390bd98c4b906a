package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"tixup/internal/models"
)

// RedisCartRepository stores the cart JSON under a Redis string key.
// A zero TTL keeps the cart until it is overwritten.
type RedisCartRepository struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisCartRepository creates a repository for one cart key
func NewRedisCartRepository(client redis.Cmdable, key string, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, key: key, ttl: ttl}
}

func (r *RedisCartRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", r.key, err)
	}
	return decodeCart(data)
}

func (r *RedisCartRepository) Save(ctx context.Context, items []models.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", r.key, err)
	}
	return nil
}

// RedisCartProvider namespaces carts by the session's cart id
type RedisCartProvider struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCartProvider creates a provider backed by client
func NewRedisCartProvider(client redis.Cmdable, ttl time.Duration) *RedisCartProvider {
	return &RedisCartProvider{client: client, ttl: ttl}
}

func (p *RedisCartProvider) ForSession(session *sessions.Session) CartRepository {
	return NewRedisCartRepository(p.client, CartKey(session), p.ttl)
}
