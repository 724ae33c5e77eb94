package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository counts failed sign-in attempts per key within a
// fixed window. Keys are hashed before they hit redis so raw emails and
// IPs never appear in the store.
type RateLimitRepository interface {
	Increment(ctx context.Context, key string) error
	IsLimited(ctx context.Context, key string) (bool, error)
	AvailableIn(ctx context.Context, key string) (time.Duration, error)
	Clear(ctx context.Context, key string) error
}

type rateLimitRepository struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewRateLimitRepository(client *redis.Client, maxAttempts int, window time.Duration) RateLimitRepository {
	return &rateLimitRepository{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("login_attempts:%x", sha256.Sum256([]byte(key)))
}

func (r *rateLimitRepository) Increment(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	k := rateLimitKey(key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		// First failure in this window starts the clock.
		return r.client.Expire(ctx, k, r.window).Err()
	}
	return nil
}

func (r *rateLimitRepository) IsLimited(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := r.client.Get(ctx, rateLimitKey(key)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= r.maxAttempts, nil
}

func (r *rateLimitRepository) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ttl, err := r.client.TTL(ctx, rateLimitKey(key)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *rateLimitRepository) Clear(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Del(ctx, rateLimitKey(key)).Err()
}
