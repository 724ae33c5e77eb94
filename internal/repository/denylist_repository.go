package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenylistRepository records revoked access tokens until their natural
// expiry. Stateless JWTs cannot be recalled, so logout is best-effort:
// the middleware rejects denylisted tokens, but only this process group
// shares the list.
type DenylistRepository interface {
	Deny(ctx context.Context, token string, ttl time.Duration) error
	IsDenied(ctx context.Context, token string) (bool, error)
}

type denylistRepository struct {
	client *redis.Client
}

func NewDenylistRepository(client *redis.Client) DenylistRepository {
	return &denylistRepository{client: client}
}

func denylistKey(token string) string {
	return fmt.Sprintf("token_denylist:%x", sha256.Sum256([]byte(token)))
}

func (r *denylistRepository) Deny(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Set(ctx, denylistKey(token), 1, ttl).Err()
}

func (r *denylistRepository) IsDenied(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := r.client.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
