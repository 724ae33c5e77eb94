package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/mailer"
	"github.com/tripline/rideshare-api/internal/repository"
	"github.com/tripline/rideshare-api/pkg/auth"
	"github.com/tripline/rideshare-api/pkg/config"
	"github.com/tripline/rideshare-api/pkg/events"
	"github.com/tripline/rideshare-api/pkg/logger"
)

type AuthService interface {
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthResponse, error)
	SignIn(ctx context.Context, req *domain.SignInRequest, ip string) (*domain.AuthResponse, error)
	VerifyEmail(ctx context.Context, email, code string) (*domain.User, error)
	SendVerificationCode(ctx context.Context, email string) error
	SendResetVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	VerifyResetPasswordCode(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error)
}

type authService struct {
	userRepo    repository.UserRepository
	verifyRepo  repository.VerifyRepository
	refreshRepo repository.RefreshTokenRepository
	resetRepo   repository.ResetTokenRepository
	denylist    repository.DenylistRepository
	rateLimit   repository.RateLimitRepository
	mailer      mailer.Service
	eventBus    events.Publisher
	config      *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	verifyRepo repository.VerifyRepository,
	refreshRepo repository.RefreshTokenRepository,
	resetRepo repository.ResetTokenRepository,
	denylist repository.DenylistRepository,
	rateLimit repository.RateLimitRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		verifyRepo:  verifyRepo,
		refreshRepo: refreshRepo,
		resetRepo:   resetRepo,
		denylist:    denylist,
		rateLimit:   rateLimit,
		mailer:      mailer,
		eventBus:    eventBus,
		config:      config,
	}
}

func (s *authService) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to check existing user", "error", err)
		return nil, domain.ErrInternal
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return nil, domain.ErrInternal
	}

	code, err := generateVerificationCode()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate verification code", "error", err)
		return nil, domain.ErrInternal
	}

	// User row and verification code commit or roll back together.
	user, err := s.userRepo.CreateWithVerification(ctx, req, passwordHash, code,
		time.Now().Add(s.config.Auth.VerificationCodeTTL))
	if err != nil {
		if err == domain.ErrEmailTaken {
			return nil, err
		}
		logger.ErrorContext(ctx, "Failed to create user", "error", err)
		return nil, domain.ErrInternal
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user.registered", "error", err, "user_id", user.ID)
	}

	// Delivery is fire-and-forget: a mail failure never unwinds the
	// committed sign-up.
	s.dispatchMail(ctx, user, code, false)

	return s.newSession(ctx, user, "Authentication successful")
}

func (s *authService) SignIn(ctx context.Context, req *domain.SignInRequest, ip string) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := throttleKey(req.Email, ip)

	limited, err := s.rateLimit.IsLimited(ctx, key)
	if err != nil {
		logger.ErrorContext(ctx, "Rate limit check failed", "error", err)
		return nil, domain.ErrInternal
	}
	if limited {
		retryAfter, err := s.rateLimit.AvailableIn(ctx, key)
		if err != nil {
			logger.ErrorContext(ctx, "Rate limit TTL lookup failed", "error", err)
			return nil, domain.ErrInternal
		}
		if err := s.eventBus.Publish(ctx, events.AuthLockout, events.AuthLockoutEvent{
			Email:             req.Email,
			IP:                ip,
			RetryAfterSeconds: int(retryAfter.Seconds()),
			OccurredAt:        time.Now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish auth.lockout", "error", err)
		}
		return nil, &domain.RateLimitedError{RetryAfter: retryAfter}
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err)
		return nil, domain.ErrInternal
	}
	if user == nil {
		// Unknown email and wrong password count and fail identically.
		s.recordFailedAttempt(ctx, key)
		return nil, domain.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to verify password", "error", err)
		return nil, domain.ErrInternal
	}
	if !match {
		s.recordFailedAttempt(ctx, key)
		return nil, domain.ErrInvalidCredentials
	}

	// Unverified users still get a session, but sign-in nudges them with
	// a fresh code. An issuance failure must not block the sign-in.
	if !user.IsVerified() {
		if code, err := s.issueCode(ctx, user.ID); err != nil {
			logger.WarnContext(ctx, "Failed to issue verification code on sign-in", "error", err, "user_id", user.ID)
		} else {
			s.dispatchMail(ctx, user, code, false)
		}
	}

	if err := s.rateLimit.Clear(ctx, key); err != nil {
		logger.WarnContext(ctx, "Failed to clear rate limit counter", "error", err)
	}

	return s.newSession(ctx, user, "Authentication successful")
}

func (s *authService) VerifyEmail(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.findForVerification(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if user.IsVerified() {
		return nil, domain.ErrAlreadyVerified
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark user verified", "error", err, "user_id", user.ID)
		return nil, domain.ErrInternal
	}
	if err := s.verifyRepo.Delete(ctx, user.ID); err != nil {
		logger.WarnContext(ctx, "Failed to delete consumed verification code", "error", err, "user_id", user.ID)
	}

	if err := s.eventBus.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user.verified", "error", err, "user_id", user.ID)
	}

	fresh, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil || fresh == nil {
		logger.ErrorContext(ctx, "Failed to reload verified user", "error", err, "user_id", user.ID)
		return nil, domain.ErrInternal
	}
	return fresh, nil
}

// SendVerificationCode issues and mails a fresh code. It reports success
// for unknown and already-verified emails too, so responses cannot be
// used to enumerate accounts.
func (s *authService) SendVerificationCode(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err)
		return domain.ErrInternal
	}
	if user == nil || user.IsVerified() {
		logger.DebugContext(ctx, "Skipping verification mail", "known", user != nil)
		return nil
	}

	code, err := s.issueCode(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue verification code", "error", err, "user_id", user.ID)
		return domain.ErrInternal
	}
	s.dispatchMail(ctx, user, code, false)
	return nil
}

// SendResetVerificationCode is the reset-flow variant: verified users
// may reset their password, so only unknown emails are skipped.
func (s *authService) SendResetVerificationCode(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err)
		return domain.ErrInternal
	}
	if user == nil {
		logger.DebugContext(ctx, "Skipping reset mail for unknown email")
		return nil
	}

	code, err := s.issueCode(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue reset code", "error", err, "user_id", user.ID)
		return domain.ErrInternal
	}
	s.dispatchMail(ctx, user, code, true)
	return nil
}

// VerifyCode is a validity probe. It never mutates state.
func (s *authService) VerifyCode(ctx context.Context, email, code string) error {
	_, err := s.findForVerification(ctx, email, code)
	return err
}

// VerifyResetPasswordCode exchanges a valid code for a short-lived reset
// token bound to the email.
func (s *authService) VerifyResetPasswordCode(ctx context.Context, email, code string) (string, error) {
	user, err := s.findForVerification(ctx, email, code)
	if err != nil {
		return "", err
	}

	token, err := s.resetRepo.Create(ctx, user.Email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create reset token", "error", err, "user_id", user.ID)
		return "", domain.ErrInternal
	}
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	// Redeem consumes the token; it is dead after this call whatever
	// happens next.
	boundEmail, err := s.resetRepo.Redeem(ctx, req.Token)
	if err != nil {
		if err == domain.ErrInvalidResetToken {
			return err
		}
		logger.ErrorContext(ctx, "Failed to redeem reset token", "error", err)
		return domain.ErrInternal
	}
	if !strings.EqualFold(boundEmail, req.Email) {
		return domain.ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err)
		return domain.ErrInternal
	}
	if user == nil {
		return domain.ErrInvalidResetToken
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return domain.ErrInternal
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		logger.ErrorContext(ctx, "Failed to update password", "error", err, "user_id", user.ID)
		return domain.ErrInternal
	}

	if err := s.eventBus.Publish(ctx, events.PasswordReset, events.PasswordResetEvent{
		UserID:  user.ID,
		Email:   user.Email,
		ResetAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish auth.password_reset", "error", err, "user_id", user.ID)
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	userID, err := s.refreshRepo.Redeem(ctx, refreshToken)
	if err != nil {
		if err == domain.ErrInvalidRefreshToken {
			return nil, err
		}
		logger.ErrorContext(ctx, "Failed to redeem refresh token", "error", err)
		return nil, domain.ErrInternal
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err, "user_id", userID)
		return nil, domain.ErrInternal
	}
	if user == nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	return s.newSession(ctx, user, "ReAuthentication successful")
}

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if claims, err := auth.Parse(accessToken, s.config.Auth.JWTSecret); err == nil {
			if err := s.denylist.Deny(ctx, accessToken, claims.RemainingTTL()); err != nil {
				logger.WarnContext(ctx, "Failed to denylist access token", "error", err)
			}
		}
	}

	if refreshToken != "" {
		if err := s.refreshRepo.Revoke(ctx, refreshToken); err != nil {
			logger.ErrorContext(ctx, "Failed to revoke refresh token", "error", err)
			return domain.ErrInternal
		}
	}
	return nil
}

func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	denied, err := s.denylist.IsDenied(ctx, token)
	if err != nil {
		logger.ErrorContext(ctx, "Denylist lookup failed", "error", err)
		return nil, domain.ErrInternal
	}
	if denied {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// Helpers

// findForVerification resolves email+code to a user, collapsing unknown
// email, missing code, expired code and mismatch into one generic error.
func (s *authService) findForVerification(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to find user", "error", err)
		return nil, domain.ErrInternal
	}
	if user == nil {
		return nil, domain.ErrInvalidCode
	}

	ok, err := s.verifyRepo.Check(ctx, user.ID, code)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to check verification code", "error", err, "user_id", user.ID)
		return nil, domain.ErrInternal
	}
	if !ok {
		return nil, domain.ErrInvalidCode
	}
	return user, nil
}

func (s *authService) issueCode(ctx context.Context, userID int64) (string, error) {
	code, err := generateVerificationCode()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(s.config.Auth.VerificationCodeTTL)
	if err := s.verifyRepo.Upsert(ctx, userID, code, expiresAt); err != nil {
		return "", err
	}
	return code, nil
}

// dispatchMail sends the code asynchronously. The request may finish
// before delivery does; failures are logged and retried by nobody.
func (s *authService) dispatchMail(ctx context.Context, user *domain.User, code string, reset bool) {
	log := logger.WithContext(ctx)
	go func() {
		var err error
		if reset {
			err = s.mailer.SendPasswordResetCode(user.Email, user.Name, code)
		} else {
			err = s.mailer.SendVerificationCode(user.Email, user.Name, code)
		}
		if err != nil {
			log.Error("Failed to send verification email", "error", err, "user_id", user.ID)
		}
	}()
}

func (s *authService) recordFailedAttempt(ctx context.Context, key string) {
	if err := s.rateLimit.Increment(ctx, key); err != nil {
		logger.WarnContext(ctx, "Failed to increment rate limit counter", "error", err)
	}
}

func (s *authService) newSession(ctx context.Context, user *domain.User, message string) (*domain.AuthResponse, error) {
	accessToken, err := auth.NewAccessToken(
		user.ID, user.Email, user.Role, user.IsVerified(),
		s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mint access token", "error", err, "user_id", user.ID)
		return nil, domain.ErrInternal
	}

	refreshToken, err := s.refreshRepo.Issue(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to issue refresh token", "error", err, "user_id", user.ID)
		return nil, domain.ErrInternal
	}

	return &domain.AuthResponse{
		Message:      message,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

func throttleKey(email, ip string) string {
	return strings.ToLower(email) + "|" + ip
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
