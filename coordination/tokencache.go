package coordination

// go generate: mockery --name TokenCache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/busanbank/live-support-api/models"
)

// TokenCache stores issued media credentials per (session, role) pair. The
// cache TTL equals the credential's validity, so a hit is always usable and
// both parties of a session keep stable uids across reconnects.
type TokenCache interface {
	Get(ctx context.Context, sessionID, role string) (*models.MediaToken, error)
	Put(ctx context.Context, sessionID, role string, token *models.MediaToken, ttl time.Duration) error
	Invalidate(ctx context.Context, sessionID, role string) error
}

type redisTokenCache struct {
	rdb  redis.UniversalClient
	keys Keys
}

// NewTokenCache initializes a token cache against the given redis client
func NewTokenCache(rdb redis.UniversalClient, keys Keys) TokenCache {
	return &redisTokenCache{rdb: rdb, keys: keys}
}

func (c *redisTokenCache) Get(ctx context.Context, sessionID, role string) (*models.MediaToken, error) {
	raw, err := c.rdb.Get(ctx, c.keys.Token(sessionID, role)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	token := &models.MediaToken{}
	if err := json.Unmarshal([]byte(raw), token); err != nil {
		return nil, err
	}
	token.Cached = true
	return token, nil
}

func (c *redisTokenCache) Put(ctx context.Context, sessionID, role string, token *models.MediaToken, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.keys.Token(sessionID, role), raw, ttl).Err()
}

func (c *redisTokenCache) Invalidate(ctx context.Context, sessionID, role string) error {
	return c.rdb.Del(ctx, c.keys.Token(sessionID, role)).Err()
}
