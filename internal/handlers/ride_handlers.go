package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/pkg/logger"
)

// ListRides handles GET /rides
func (h *Handlers) ListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rideService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rides": rides})
}

// FilterRides handles GET /rides/filter. Only verified users may search.
func (h *Handlers) FilterRides(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil || !claims.Verified {
		writeError(w, http.StatusForbidden, "Email verification required", "FORBIDDEN")
		return
	}

	q := r.URL.Query()
	filter := &domain.RideFilter{
		DepartureLocation: q.Get("departure_location"),
		Destination:       q.Get("destination"),
		DepartureDate:     q.Get("departure_date"),
	}
	if seats := q.Get("available_seats"); seats != "" {
		n, err := strconv.Atoi(seats)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "available_seats must be a positive integer", "INVALID_INPUT")
			return
		}
		filter.AvailableSeats = n
	}

	rides, err := h.rideService.Filter(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rides": rides})
}

// CreateRide handles POST /rides
func (h *Handlers) CreateRide(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	var req domain.StoreRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	ride, err := h.rideService.Create(r.Context(), claims.Sub, claims.Role, claims.Verified, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Ride created", "ride_id", ride.ID, "driver_id", claims.Sub)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Ride created",
		"ride":    ride,
	})
}

// GetRide handles GET /rides/{id}
func (h *Handlers) GetRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}

	ride, err := h.rideService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ride": ride})
}

// UpdateRide handles PUT /rides/{id}
func (h *Handlers) UpdateRide(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, ok := rideID(w, r)
	if !ok {
		return
	}

	var req domain.StoreRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_JSON")
		return
	}

	ride, err := h.rideService.Update(r.Context(), claims.Sub, id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Ride updated",
		"ride":    ride,
	})
}

// ToggleRideArchive handles POST /rides/{id}/archive
func (h *Handlers) ToggleRideArchive(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, ok := rideID(w, r)
	if !ok {
		return
	}

	ride, err := h.rideService.ToggleArchive(r.Context(), claims.Sub, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Ride archive toggled",
		"ride":    ride,
	})
}

// DeleteRide handles DELETE /rides/{id}
func (h *Handlers) DeleteRide(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	id, ok := rideID(w, r)
	if !ok {
		return
	}

	if err := h.rideService.Delete(r.Context(), claims.Sub, id); err != nil {
		writeServiceError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Ride deleted", "ride_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ride deleted"})
}

// MyRides handles GET /rides/my?archived=all|true|false
func (h *Handlers) MyRides(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
		return
	}

	rides, err := h.rideService.MyRides(r.Context(), claims.Sub, r.URL.Query().Get("archived"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rides": rides})
}

func rideID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid ride ID", "INVALID_INPUT")
		return 0, false
	}
	return id, true
}
