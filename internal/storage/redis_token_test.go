package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisTokenCacheRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	cache := NewRedisTokenCache(kv, "kpi-dashboard:", "client-1")
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	tok, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	err = cache.Save(ctx, &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "secret-refresh",
		Expiry:       now.Add(time.Hour),
	})
	require.NoError(t, err)

	key := "kpi-dashboard:oauth_token:client-1"
	assert.Equal(t, time.Hour-tokenExpiryMargin, kv.ttls[key])
	assert.NotContains(t, kv.values[key], "secret-refresh")

	tok, err = cache.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Empty(t, tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(now.Add(time.Hour)))
}

func TestRedisTokenCacheSkipsShortLivedTokens(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	cache := NewRedisTokenCache(kv, "", "c")
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, cache.Save(ctx, &oauth2.Token{AccessToken: "a", Expiry: now.Add(10 * time.Second)}))
	require.NoError(t, cache.Save(ctx, &oauth2.Token{AccessToken: "b"}))
	require.NoError(t, cache.Save(ctx, nil))
	assert.Empty(t, kv.values)
}

func TestRedisTokenCacheErrors(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	cache := NewRedisTokenCache(kv, "", "c")

	ctx := context.Background()
	_, err := cache.Load(ctx)
	assert.ErrorContains(t, err, "connection refused")

	err = cache.Save(ctx, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)})
	assert.ErrorContains(t, err, "connection refused")

	kv.err = nil
	kv.values["oauth_token:c"] = "{not json"
	_, err = cache.Load(ctx)
	assert.ErrorContains(t, err, "decode")
}
