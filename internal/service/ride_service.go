package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/repository"
	"github.com/tripline/rideshare-api/pkg/logger"
)

// RideService owns the listing rules: only verified drivers post rides,
// and only the owning driver may update, archive or delete one.
type RideService interface {
	List(ctx context.Context) ([]domain.Ride, error)
	Create(ctx context.Context, driverID int64, role string, verified bool, req *domain.StoreRideRequest) (*domain.Ride, error)
	Get(ctx context.Context, id int64) (*domain.Ride, error)
	Update(ctx context.Context, actorID, id int64, req *domain.StoreRideRequest) (*domain.Ride, error)
	ToggleArchive(ctx context.Context, actorID, id int64) (*domain.Ride, error)
	Delete(ctx context.Context, actorID, id int64) error
	Filter(ctx context.Context, f *domain.RideFilter) ([]domain.Ride, error)
	MyRides(ctx context.Context, driverID int64, archived string) ([]domain.Ride, error)
}

type rideService struct {
	rideRepo repository.RideRepository
}

func NewRideService(rideRepo repository.RideRepository) RideService {
	return &rideService{rideRepo: rideRepo}
}

func (s *rideService) List(ctx context.Context) ([]domain.Ride, error) {
	rides, err := s.rideRepo.ListUpcoming(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list rides", "error", err)
		return nil, domain.ErrInternal
	}
	return rides, nil
}

func (s *rideService) Create(ctx context.Context, driverID int64, role string, verified bool, req *domain.StoreRideRequest) (*domain.Ride, error) {
	if role != domain.RoleDriver || !verified {
		return nil, domain.ErrForbidden
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.Create(ctx, req, driverID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create ride", "error", err, "driver_id", driverID)
		return nil, domain.ErrInternal
	}
	return ride, nil
}

func (s *rideService) Get(ctx context.Context, id int64) (*domain.Ride, error) {
	ride, err := s.rideRepo.FindByID(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load ride", "error", err, "ride_id", id)
		return nil, domain.ErrInternal
	}
	if ride == nil {
		return nil, domain.ErrNotFound
	}
	return ride, nil
}

func (s *rideService) Update(ctx context.Context, actorID, id int64, req *domain.StoreRideRequest) (*domain.Ride, error) {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.Update(ctx, id, req)
	if err != nil || ride == nil {
		logger.ErrorContext(ctx, "Failed to update ride", "error", err, "ride_id", id)
		return nil, domain.ErrInternal
	}
	return ride, nil
}

func (s *rideService) ToggleArchive(ctx context.Context, actorID, id int64) (*domain.Ride, error) {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.ToggleArchive(ctx, id)
	if err != nil || ride == nil {
		logger.ErrorContext(ctx, "Failed to toggle ride archive", "error", err, "ride_id", id)
		return nil, domain.ErrInternal
	}
	return ride, nil
}

func (s *rideService) Delete(ctx context.Context, actorID, id int64) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.rideRepo.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		logger.ErrorContext(ctx, "Failed to delete ride", "error", err, "ride_id", id)
		return domain.ErrInternal
	}
	return nil
}

func (s *rideService) Filter(ctx context.Context, f *domain.RideFilter) ([]domain.Ride, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rides, err := s.rideRepo.Filter(ctx, f)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to filter rides", "error", err)
		return nil, domain.ErrInternal
	}
	return rides, nil
}

func (s *rideService) MyRides(ctx context.Context, driverID int64, archived string) ([]domain.Ride, error) {
	switch archived {
	case "", domain.ArchivedAll:
		archived = domain.ArchivedAll
	case domain.ArchivedOnly, domain.ArchivedNone:
	default:
		return nil, domain.Validationf("archived must be one of all, true, false")
	}

	rides, err := s.rideRepo.ListByDriver(ctx, driverID, archived)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list driver rides", "error", err, "driver_id", driverID)
		return nil, domain.ErrInternal
	}
	return rides, nil
}

func (s *rideService) owned(ctx context.Context, actorID, id int64) (*domain.Ride, error) {
	ride, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != actorID {
		return nil, domain.ErrForbidden
	}
	return ride, nil
}
