package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripline/rideshare-api/internal/domain"
)

// RefreshTokenRepository maps opaque refresh tokens to user ids in
// redis. Tokens are single-use: Redeem removes the entry atomically so a
// replayed token always misses.
type RefreshTokenRepository interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Redeem(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
}

type refreshTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRefreshTokenRepository(client *redis.Client, ttl time.Duration) RefreshTokenRepository {
	return &refreshTokenRepository{client: client, ttl: ttl}
}

const refreshTokenPrefix = "refresh_token:"

func (r *refreshTokenRepository) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, refreshTokenPrefix+token, userID, r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (r *refreshTokenRepository) Redeem(ctx context.Context, token string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// GETDEL makes check-and-consume atomic; two concurrent redeems of
	// the same token cannot both succeed.
	val, err := r.client.GetDel(ctx, refreshTokenPrefix+token).Result()
	if err == redis.Nil {
		return 0, domain.ErrInvalidRefreshToken
	}
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidRefreshToken
	}
	return userID, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Del(ctx, refreshTokenPrefix+token).Err()
}
