package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/korjavin/whatthefridge/pkg/models"
)

const redisKeyPrefix = "wtf:selection:"

// RedisStore keeps selections in Redis so that several server instances can
// share sessions. Each selection expires ttl after its last write.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis at addr and verifies the connection
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// Set replaces the selection of a session
func (r *RedisStore) Set(ctx context.Context, sessionID string, ingredients []models.Ingredient) (models.Selection, error) {
	sel := models.Selection{
		SessionID:   sessionID,
		Ingredients: cloneIngredients(ingredients),
		UpdatedAt:   time.Now(),
	}

	raw, err := json.Marshal(sel)
	if err != nil {
		return models.Selection{}, fmt.Errorf("failed to marshal selection: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+sessionID, raw, r.ttl).Err(); err != nil {
		return models.Selection{}, fmt.Errorf("failed to store selection: %w", err)
	}
	return sel, nil
}

// Get returns the selection of a session
func (r *RedisStore) Get(ctx context.Context, sessionID string) (models.Selection, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return models.Selection{}, ErrNoSelection
	}
	if err != nil {
		return models.Selection{}, fmt.Errorf("failed to load selection: %w", err)
	}

	var sel models.Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return models.Selection{}, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	return sel, nil
}

// Clear removes the selection of a session
func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+sessionID).Err()
}

// Close closes the Redis client
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
