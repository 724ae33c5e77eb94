package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tripline/rideshare-api/internal/domain"
)

// Me handles GET /user
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	user, err := h.userService.Profile(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.ToUserInfo()})
}

// UpdateProfile handles POST /user/profile
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    user.ToUserInfo(),
	})
}

// VerifyToken handles GET /verify-token. RequireJWT already validated
// the token, so reaching this handler means it is good.
func (h *Handlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Token is valid",
		"user_id":  claims.Sub,
		"email":    claims.Email,
		"role":     claims.Role,
		"verified": claims.Verified,
	})
}
