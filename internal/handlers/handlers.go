package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/service"
	"github.com/tripline/rideshare-api/pkg/auth"
	"github.com/tripline/rideshare-api/pkg/config"
	"github.com/tripline/rideshare-api/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	authService service.AuthService
	rideService service.RideService
	userService service.UserService
	config      *config.Config
}

func New(
	authService service.AuthService,
	rideService service.RideService,
	userService service.UserService,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService: authService,
		rideService: rideService,
		userService: userService,
		config:      config,
	}
}

// RequireJWT authenticates the request via the Authorization header.
// Denylisted (logged-out) tokens are rejected along with invalid ones.
func (h *Handlers) RequireJWT() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
				return
			}

			claims, err := h.authService.ValidateAccessToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognized is reported as a generic internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Msg, "INVALID_INPUT")
		return
	}

	var rateLimitErr *domain.RateLimitedError
	if errors.As(err, &rateLimitErr) {
		seconds := int(rateLimitErr.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests,
			"Too many login attempts. Please try again in "+strconv.Itoa(seconds)+" seconds.",
			"RATE_LIMIT_EXCEEDED")
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "UNAUTHORIZED")
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid or expired verification code", "VERIFICATION_FAILED")
	case errors.Is(err, domain.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "Email already verified", "ALREADY_VERIFIED")
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "User with this email already exists", "EMAIL_EXISTS")
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, "Invalid refresh token", "INVALID_TOKEN")
	case errors.Is(err, domain.ErrInvalidResetToken):
		writeError(w, http.StatusUnauthorized, "Invalid or expired reset token", "INVALID_TOKEN")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", "FORBIDDEN")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
