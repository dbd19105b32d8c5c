package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// tokenExpiryMargin is subtracted from the token lifetime so that a cached
// token is never handed out just before it expires.
const tokenExpiryMargin = 30 * time.Second

// RedisKV is the subset of the Redis client used by RedisTokenCache.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisTokenCache shares OAuth2 access tokens between dashboard instances
// using the same client credentials.
type RedisTokenCache struct {
	client RedisKV
	key    string
	now    func() time.Time
}

// NewRedisTokenCache creates a token cache. Tokens are stored under
// prefix + "oauth_token:" + clientID.
func NewRedisTokenCache(client RedisKV, prefix, clientID string) *RedisTokenCache {
	return &RedisTokenCache{
		client: client,
		key:    prefix + "oauth_token:" + clientID,
		now:    time.Now,
	}
}

// cachedToken never carries the refresh token.
type cachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

// Load returns the cached token, or nil when there is none.
func (c *RedisTokenCache) Load(ctx context.Context) (*oauth2.Token, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var ct cachedToken
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &oauth2.Token{
		AccessToken: ct.AccessToken,
		TokenType:   ct.TokenType,
		Expiry:      ct.Expiry,
	}, nil
}

// Save stores tok until shortly before it expires. Tokens without an expiry
// or about to expire are not cached.
func (c *RedisTokenCache) Save(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil || tok.Expiry.IsZero() {
		return nil
	}
	ttl := tok.Expiry.Sub(c.now()) - tokenExpiryMargin
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedToken{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      tok.Expiry,
	})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}
