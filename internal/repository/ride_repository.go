package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripline/rideshare-api/internal/domain"
)

type RideRepository interface {
	Create(ctx context.Context, req *domain.StoreRideRequest, driverID int64) (*domain.Ride, error)
	FindByID(ctx context.Context, id int64) (*domain.Ride, error)
	ListUpcoming(ctx context.Context) ([]domain.Ride, error)
	ListByDriver(ctx context.Context, driverID int64, archived string) ([]domain.Ride, error)
	Filter(ctx context.Context, f *domain.RideFilter) ([]domain.Ride, error)
	Update(ctx context.Context, id int64, req *domain.StoreRideRequest) (*domain.Ride, error)
	ToggleArchive(ctx context.Context, id int64) (*domain.Ride, error)
	Delete(ctx context.Context, id int64) error
}

type rideRepository struct {
	pool *pgxpool.Pool
}

func NewRideRepository(pool *pgxpool.Pool) RideRepository {
	return &rideRepository{pool: pool}
}

const rideCols = `id, driver_id, departure_location, destination, departure_time, available_seats, is_archived, created_at, updated_at`

func scanRide(row pgx.Row) (*domain.Ride, error) {
	var rd domain.Ride
	err := row.Scan(
		&rd.ID, &rd.DriverID, &rd.DepartureLocation, &rd.Destination,
		&rd.DepartureTime, &rd.AvailableSeats, &rd.IsArchived, &rd.CreatedAt, &rd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

const rideWithDriverCols = `
	r.id, r.driver_id, r.departure_location, r.destination, r.departure_time,
	r.available_seats, r.is_archived, r.created_at, r.updated_at,
	u.id, u.email, u.name, u.phone, u.city, u.address, u.role, u.email_verified_at IS NOT NULL`

func collectRidesWithDriver(rows pgx.Rows) ([]domain.Ride, error) {
	defer rows.Close()

	var rides []domain.Ride
	for rows.Next() {
		var rd domain.Ride
		var d domain.UserInfo
		if err := rows.Scan(
			&rd.ID, &rd.DriverID, &rd.DepartureLocation, &rd.Destination,
			&rd.DepartureTime, &rd.AvailableSeats, &rd.IsArchived, &rd.CreatedAt, &rd.UpdatedAt,
			&d.ID, &d.Email, &d.Name, &d.Phone, &d.City, &d.Address, &d.Role, &d.IsVerified,
		); err != nil {
			return nil, err
		}
		rd.Driver = &d
		rides = append(rides, rd)
	}
	return rides, rows.Err()
}

func (r *rideRepository) Create(ctx context.Context, req *domain.StoreRideRequest, driverID int64) (*domain.Ride, error) {
	const q = `
		INSERT INTO rides (driver_id, departure_location, destination, departure_time, available_seats)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + rideCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRide(r.pool.QueryRow(ctx, q,
		driverID, req.DepartureLocation, req.Destination, req.DepartureTime, req.AvailableSeats))
}

func (r *rideRepository) FindByID(ctx context.Context, id int64) (*domain.Ride, error) {
	const q = `SELECT ` + rideCols + ` FROM rides WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rd, err := scanRide(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rd, err
}

// ListUpcoming returns future, unarchived rides soonest-first with driver
// info attached.
func (r *rideRepository) ListUpcoming(ctx context.Context) ([]domain.Ride, error) {
	const q = `
		SELECT ` + rideWithDriverCols + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE r.is_archived = false AND r.departure_time > now()
		ORDER BY r.departure_time ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectRidesWithDriver(rows)
}

func (r *rideRepository) ListByDriver(ctx context.Context, driverID int64, archived string) ([]domain.Ride, error) {
	q := `SELECT ` + rideCols + ` FROM rides WHERE driver_id = $1`
	switch archived {
	case domain.ArchivedOnly:
		q += ` AND is_archived = true`
	case domain.ArchivedNone:
		q += ` AND is_archived = false`
	}
	q += ` ORDER BY departure_time DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []domain.Ride
	for rows.Next() {
		var rd domain.Ride
		if err := rows.Scan(
			&rd.ID, &rd.DriverID, &rd.DepartureLocation, &rd.Destination,
			&rd.DepartureTime, &rd.AvailableSeats, &rd.IsArchived, &rd.CreatedAt, &rd.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rides = append(rides, rd)
	}
	return rides, rows.Err()
}

func (r *rideRepository) Filter(ctx context.Context, f *domain.RideFilter) ([]domain.Ride, error) {
	var (
		conds = []string{"r.is_archived = false", "r.departure_time > now()"}
		args  []any
	)

	if f.DepartureLocation != "" {
		args = append(args, "%"+f.DepartureLocation+"%")
		conds = append(conds, fmt.Sprintf("r.departure_location ILIKE $%d", len(args)))
	}
	if f.Destination != "" {
		args = append(args, "%"+f.Destination+"%")
		conds = append(conds, fmt.Sprintf("r.destination ILIKE $%d", len(args)))
	}
	if f.DepartureDate != "" {
		args = append(args, f.DepartureDate)
		conds = append(conds, fmt.Sprintf("r.departure_time::date = $%d::date", len(args)))
	}
	if f.AvailableSeats > 0 {
		args = append(args, f.AvailableSeats)
		conds = append(conds, fmt.Sprintf("r.available_seats >= $%d", len(args)))
	}

	q := `
		SELECT ` + rideWithDriverCols + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY r.departure_time ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectRidesWithDriver(rows)
}

func (r *rideRepository) Update(ctx context.Context, id int64, req *domain.StoreRideRequest) (*domain.Ride, error) {
	const q = `
		UPDATE rides
		SET
			departure_location = $2,
			destination = $3,
			departure_time = $4,
			available_seats = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + rideCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rd, err := scanRide(r.pool.QueryRow(ctx, q,
		id, req.DepartureLocation, req.Destination, req.DepartureTime, req.AvailableSeats))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rd, err
}

func (r *rideRepository) ToggleArchive(ctx context.Context, id int64) (*domain.Ride, error) {
	const q = `
		UPDATE rides
		SET is_archived = NOT is_archived, updated_at = now()
		WHERE id = $1
		RETURNING ` + rideCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rd, err := scanRide(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rd, err
}

func (r *rideRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM rides WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
