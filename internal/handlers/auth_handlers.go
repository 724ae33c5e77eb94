package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/pkg/logger"
)

// SignUp handles POST /auth/sign-up
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	resp, err := h.authService.SignUp(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "User signed up", "user_id", resp.User.ID, "role", resp.User.Role)
	writeJSON(w, http.StatusCreated, resp)
}

// SignIn handles POST /auth/sign-in
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	resp, err := h.authService.SignIn(r.Context(), &req, getClientIP(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "User signed in", "user_id", resp.User.ID)
	writeJSON(w, http.StatusOK, resp)
}

// VerifyEmail handles POST /auth/verify-email
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.authService.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Email verified", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
		"user":    user.ToUserInfo(),
	})
}

// SendVerification handles POST /auth/send-verification. The response is
// the same whether or not the email belongs to an account.
func (h *Handlers) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.SendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	if err := h.authService.SendVerificationCode(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the email is registered, a verification code has been sent",
	})
}

// SendResetVerification handles POST /auth/send-reset-verification.
func (h *Handlers) SendResetVerification(w http.ResponseWriter, r *http.Request) {
	var req domain.SendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	if err := h.authService.SendResetVerificationCode(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the email is registered, a verification code has been sent",
	})
}

// VerifyCode handles POST /auth/verify-code. It checks code validity
// without consuming the code.
func (h *Handlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.authService.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Code is valid"})
}

// VerifyResetPasswordCode handles POST /auth/verify-reset-password-code.
// A valid code is exchanged for a single-use reset token.
func (h *Handlers) VerifyResetPasswordCode(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authService.VerifyResetPasswordCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Code is valid",
		"token":   token,
	})
}

// ResetPassword handles POST /auth/reset-password
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Password reset completed")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// RefreshToken handles POST /auth/refresh-token. The presented token is
// consumed and a new pair is issued.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required", "INVALID_INPUT")
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout. The access token comes from the
// Authorization header, the refresh token from the body; both optional.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.authService.Logout(r.Context(), bearerToken(r), req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
