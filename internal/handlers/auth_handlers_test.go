package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/handlers"
	"github.com/tripline/rideshare-api/pkg/auth"
	"github.com/tripline/rideshare-api/pkg/config"
)

// ---------- Mocks ----------

// stubAuthService lets each test script the outcome per call.
type stubAuthService struct {
	signUpResp  *domain.AuthResponse
	signUpErr   error
	signInResp  *domain.AuthResponse
	signInErr   error
	signInIP    string
	verifyUser  *domain.User
	verifyErr   error
	sendErr     error
	probeErr    error
	resetToken  string
	resetErr    error
	refreshResp *domain.AuthResponse
	refreshErr  error
	logoutErr   error
	claims      *auth.Claims
	claimsErr   error
}

func (s *stubAuthService) SignUp(_ context.Context, _ *domain.SignUpRequest) (*domain.AuthResponse, error) {
	return s.signUpResp, s.signUpErr
}

func (s *stubAuthService) SignIn(_ context.Context, _ *domain.SignInRequest, ip string) (*domain.AuthResponse, error) {
	s.signInIP = ip
	return s.signInResp, s.signInErr
}

func (s *stubAuthService) VerifyEmail(_ context.Context, _, _ string) (*domain.User, error) {
	return s.verifyUser, s.verifyErr
}

func (s *stubAuthService) SendVerificationCode(_ context.Context, _ string) error {
	return s.sendErr
}

func (s *stubAuthService) SendResetVerificationCode(_ context.Context, _ string) error {
	return s.sendErr
}

func (s *stubAuthService) VerifyCode(_ context.Context, _, _ string) error {
	return s.probeErr
}

func (s *stubAuthService) VerifyResetPasswordCode(_ context.Context, _, _ string) (string, error) {
	return s.resetToken, s.resetErr
}

func (s *stubAuthService) ResetPassword(_ context.Context, _ *domain.ResetPasswordRequest) error {
	return s.resetErr
}

func (s *stubAuthService) Refresh(_ context.Context, _ string) (*domain.AuthResponse, error) {
	return s.refreshResp, s.refreshErr
}

func (s *stubAuthService) Logout(_ context.Context, _, _ string) error {
	return s.logoutErr
}

func (s *stubAuthService) ValidateAccessToken(_ context.Context, _ string) (*auth.Claims, error) {
	return s.claims, s.claimsErr
}

func okResponse() *domain.AuthResponse {
	return &domain.AuthResponse{
		Message:      "Authentication successful",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		User:         &domain.UserInfo{ID: 1, Email: "u@example.com", Role: domain.RoleRegular},
	}
}

func newRouter(svc *stubAuthService) http.Handler {
	h := handlers.New(svc, nil, nil, &config.Config{})
	r := chi.NewRouter()
	r.Post("/auth/sign-up", h.SignUp)
	r.Post("/auth/sign-in", h.SignIn)
	r.Post("/auth/verify-email", h.VerifyEmail)
	r.Post("/auth/send-verification", h.SendVerification)
	r.Post("/auth/refresh-token", h.RefreshToken)
	r.Post("/auth/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(h.RequireJWT())
		r.Get("/verify-token", h.VerifyToken)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ---------- Tests ----------

func TestSignUpCreated(t *testing.T) {
	svc := &stubAuthService{signUpResp: okResponse()}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/sign-up", map[string]string{"email": "u@example.com"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	var resp domain.AuthResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.AccessToken != "access" {
		t.Errorf("access_token = %q", resp.AccessToken)
	}
}

func TestSignUpConflict(t *testing.T) {
	svc := &stubAuthService{signUpErr: domain.ErrEmailTaken}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/sign-up", map[string]string{})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSignUpValidationError(t *testing.T) {
	svc := &stubAuthService{signUpErr: domain.Validationf("email is required")}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/sign-up", map[string]string{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{signInErr: domain.ErrInvalidCredentials}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/sign-in", map[string]string{})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSignInRateLimited(t *testing.T) {
	svc := &stubAuthService{signInErr: &domain.RateLimitedError{RetryAfter: 42 * time.Second}}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/sign-in", map[string]string{})

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Errorf("Retry-After = %q, want 42", got)
	}
}

func TestSignInForwardsClientIP(t *testing.T) {
	svc := &stubAuthService{signInResp: okResponse()}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if svc.signInIP != "203.0.113.9" {
		t.Errorf("ip = %q, want first X-Forwarded-For hop", svc.signInIP)
	}
}

func TestVerifyEmailBadCode(t *testing.T) {
	svc := &stubAuthService{verifyErr: domain.ErrInvalidCode}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/verify-email",
		map[string]string{"email": "u@example.com", "verification_code": "1234"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestVerifyEmailRejectsShortCode(t *testing.T) {
	svc := &stubAuthService{}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/verify-email",
		map[string]string{"email": "u@example.com", "verification_code": "12"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSendVerificationAlwaysGeneric(t *testing.T) {
	svc := &stubAuthService{}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/send-verification",
		map[string]string{"email": "whoever@example.com"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["message"] == "" {
		t.Error("expected a generic message")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	svc := &stubAuthService{refreshErr: domain.ErrInvalidRefreshToken}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/refresh-token",
		map[string]string{"refresh_token": "stale"})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	svc := &stubAuthService{}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/refresh-token", map[string]string{})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogoutOK(t *testing.T) {
	svc := &stubAuthService{}
	rec := doJSON(t, newRouter(svc), http.MethodPost, "/auth/logout",
		map[string]string{"refresh_token": "refresh"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireJWT(t *testing.T) {
	svc := &stubAuthService{claims: &auth.Claims{Sub: 5, Email: "u@example.com", Role: domain.RoleDriver, Verified: true}}
	router := newRouter(svc)

	// No header
	req := httptest.NewRequest(http.MethodGet, "/verify-token", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want 401", rec.Code)
	}

	// Valid token
	req = httptest.NewRequest(http.MethodGet, "/verify-token", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["email"] != "u@example.com" {
		t.Errorf("email = %v", resp["email"])
	}

	// Rejected token
	svc.claims = nil
	svc.claimsErr = auth.ErrInvalidToken
	req = httptest.NewRequest(http.MethodGet, "/verify-token", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}
