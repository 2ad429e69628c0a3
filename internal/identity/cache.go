package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedVerifier wraps a Verifier with a short-lived Redis cache so
// repeated requests within one page load do not hammer the provider.
// Only positive results are cached; rejections always re-verify.
type CachedVerifier struct {
	inner  Verifier
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedVerifier builds the caching wrapper. A zero ttl or nil
// client disables caching entirely.
func NewCachedVerifier(inner Verifier, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedVerifier {
	return &CachedVerifier{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Whoami serves from cache when possible. Cache failures degrade to a
// direct provider call, never to a rejected request.
func (c *CachedVerifier) Whoami(ctx context.Context, cookie string) (*Identity, error) {
	if c.client == nil || c.ttl <= 0 {
		return c.inner.Whoami(ctx, cookie)
	}

	key := cacheKey(cookie)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var identity Identity
		if err := json.Unmarshal([]byte(raw), &identity); err == nil {
			return &identity, nil
		}
	}

	identity, err := c.inner.Whoami(ctx, cookie)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(identity); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("session cache write failed", zap.Error(err))
		}
	}
	return identity, nil
}

// cacheKey hashes the raw cookie so credentials never appear in Redis.
func cacheKey(cookie string) string {
	sum := sha256.Sum256([]byte(cookie))
	return "session:" + hex.EncodeToString(sum[:])
}
