package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerifyRepository manages the single live email verification code per
// user. Expiry is lazy: stale rows fail the match and are only removed
// on consumption or replacement.
type VerifyRepository interface {
	Upsert(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	Check(ctx context.Context, userID int64, code string) (bool, error)
	Delete(ctx context.Context, userID int64) error
}

type verifyRepository struct {
	pool *pgxpool.Pool
}

func NewVerifyRepository(pool *pgxpool.Pool) VerifyRepository {
	return &verifyRepository{pool: pool}
}

func (r *verifyRepository) Upsert(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	// At most one live code per user: replacing discards the old one.
	const q = `
		INSERT INTO email_verifications (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			created_at = now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, code, expiresAt)
	return err
}

func (r *verifyRepository) Check(ctx context.Context, userID int64, code string) (bool, error) {
	const q = `
		SELECT 1 FROM email_verifications
		WHERE user_id = $1 AND code = $2 AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var one int
	err := r.pool.QueryRow(ctx, q, userID, code).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *verifyRepository) Delete(ctx context.Context, userID int64) error {
	const q = `DELETE FROM email_verifications WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID)
	return err
}
