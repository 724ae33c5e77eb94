package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripline/rideshare-api/internal/domain"
)

type UserRepository interface {
	// CreateWithVerification inserts the user and upserts their
	// verification code in one transaction, so a failure on either side
	// leaves no partial state.
	CreateWithVerification(ctx context.Context, req *domain.SignUpRequest, passwordHash, code string, codeExpiresAt time.Time) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	MarkVerified(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, role, email, password_hash, name, phone, city, address, email_verified_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&u.City, &u.Address, &u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) CreateWithVerification(ctx context.Context, req *domain.SignUpRequest, passwordHash, code string, codeExpiresAt time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertUser = `
		INSERT INTO users (role, email, password_hash, name, phone, city, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userCols

	u, err := scanUser(tx.QueryRow(ctx, insertUser,
		req.Role, req.Email, passwordHash, req.Name, req.Phone, req.City, req.Address))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	const upsertCode = `
		INSERT INTO email_verifications (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			created_at = now()`

	if _, err := tx.Exec(ctx, upsertCode, u.ID, code, codeExpiresAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) MarkVerified(ctx context.Context, userID int64) error {
	// email_verified_at is set exactly once.
	const q = `
		UPDATE users
		SET email_verified_at = now(), updated_at = now()
		WHERE id = $1 AND email_verified_at IS NULL`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	const q = `
		UPDATE users
		SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			city = COALESCE($4, city),
			address = COALESCE($5, address),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id, req.Name, req.Phone, req.City, req.Address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}
