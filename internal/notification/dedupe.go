package notification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers which notifications were already handed to the mailer.
type Deduper interface {
	// Claim returns true the first time key is seen within the window.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed send can be retried by a later call.
	Release(ctx context.Context, key string) error
}

// RedisDeduper keeps one SETNX key per notification with a TTL.
type RedisDeduper struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisDeduper(client redis.UniversalClient, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl, prefix: "escena:notify:"}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, d.prefix+key, 1, d.ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+key).Err()
}

// dedupeKey hashes the parts so addresses never appear in Redis keys.
func dedupeKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
