package repository

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripline/rideshare-api/internal/domain"
)

// ResetTokenRepository maps opaque password-reset tokens to the email
// they authorize. Entries are time-boxed and consumed on redeem.
type ResetTokenRepository interface {
	Create(ctx context.Context, email string) (string, error)
	Redeem(ctx context.Context, token string) (string, error)
}

type resetTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResetTokenRepository(client *redis.Client, ttl time.Duration) ResetTokenRepository {
	return &resetTokenRepository{client: client, ttl: ttl}
}

const (
	resetTokenPrefix = "reset_password_token:"
	resetTokenLength = 64
	tokenAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (r *resetTokenRepository) Create(ctx context.Context, email string) (string, error) {
	token, err := randomToken(resetTokenLength)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, resetTokenPrefix+token, email, r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes the token and returns the email it was bound to.
// Consumption happens before any further checks, so a token is dead
// after its first presentation regardless of outcome.
func (r *resetTokenRepository) Redeem(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	email, err := r.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if err == redis.Nil {
		return "", domain.ErrInvalidResetToken
	}
	if err != nil {
		return "", err
	}
	return email, nil
}
