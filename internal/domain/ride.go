package domain

import (
	"strings"
	"time"
)

type Ride struct {
	ID                int64     `json:"id"`
	DriverID          int64     `json:"driver_id"`
	DepartureLocation string    `json:"departure_location"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departure_time"`
	AvailableSeats    int       `json:"available_seats"`
	IsArchived        bool      `json:"is_archived"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Driver is populated on listing queries.
	Driver *UserInfo `json:"driver,omitempty"`
}

type StoreRideRequest struct {
	DepartureLocation string    `json:"departure_location"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departure_time"`
	AvailableSeats    int       `json:"available_seats"`
}

func (r *StoreRideRequest) Normalize() {
	r.DepartureLocation = strings.TrimSpace(r.DepartureLocation)
	r.Destination = strings.TrimSpace(r.Destination)
}

func (r *StoreRideRequest) Validate() error {
	if r.DepartureLocation == "" {
		return Validationf("departure_location is required")
	}
	if r.Destination == "" {
		return Validationf("destination is required")
	}
	if r.DepartureTime.IsZero() {
		return Validationf("departure_time is required")
	}
	if !r.DepartureTime.After(time.Now()) {
		return Validationf("departure_time must be in the future")
	}
	if r.AvailableSeats < 1 {
		return Validationf("available_seats must be at least 1")
	}
	return nil
}

// RideFilter holds the optional criteria of the filter endpoint. Zero
// values mean "not filtered on".
type RideFilter struct {
	DepartureLocation string
	Destination       string
	DepartureDate     string // YYYY-MM-DD
	AvailableSeats    int
}

func (f *RideFilter) Validate() error {
	if f.DepartureDate != "" {
		if _, err := time.Parse("2006-01-02", f.DepartureDate); err != nil {
			return Validationf("departure_date must be formatted as YYYY-MM-DD")
		}
	}
	if f.AvailableSeats < 0 {
		return Validationf("available_seats must be at least 1")
	}
	return nil
}

// ArchivedFilter values accepted by the my-rides endpoint.
const (
	ArchivedAll  = "all"
	ArchivedOnly = "true"
	ArchivedNone = "false"
)
