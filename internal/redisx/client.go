package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(ctx context.Context, addr string) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.Ping(pctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return r, nil
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// ClaimOnce sets key only if absent and reports whether this call set it.
func ClaimOnce(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) (bool, error) {
	return Claim(ctx, rdb, key, "1", ttl)
}

// Claim is ClaimOnce with a caller-chosen value, so waiters can tell a
// claim in progress from a finished one.
func Claim(ctx context.Context, rdb redis.Cmdable, key, value string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, value, ttl).Result()
}

// ConfigStore keeps per-scope JSON documents, such as the slot registry, in
// redis. It satisfies slots.Store.
type ConfigStore struct {
	Redis redis.Cmdable
}

func (s *ConfigStore) Load(ctx context.Context, scopeKey, configKey string) ([]byte, bool, error) {
	b, err := s.Redis.Get(ctx, fmt.Sprintf(KeyConfig, scopeKey, configKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *ConfigStore) Save(ctx context.Context, scopeKey, configKey string, doc []byte) error {
	return s.Redis.Set(ctx, fmt.Sprintf(KeyConfig, scopeKey, configKey), doc, 0).Err()
}
