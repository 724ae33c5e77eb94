package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/service"
)

// ---------- Mocks ----------

type mockRideRepo struct {
	mu     sync.Mutex
	nextID int64
	rides  map[int64]*domain.Ride
}

func newMockRideRepo() *mockRideRepo {
	return &mockRideRepo{nextID: 1, rides: make(map[int64]*domain.Ride)}
}

func (m *mockRideRepo) Create(_ context.Context, req *domain.StoreRideRequest, driverID int64) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rd := &domain.Ride{
		ID:                m.nextID,
		DriverID:          driverID,
		DepartureLocation: req.DepartureLocation,
		Destination:       req.Destination,
		DepartureTime:     req.DepartureTime,
		AvailableSeats:    req.AvailableSeats,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	m.nextID++
	m.rides[rd.ID] = rd
	cp := *rd
	return &cp, nil
}

func (m *mockRideRepo) FindByID(_ context.Context, id int64) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rd, ok := m.rides[id]
	if !ok {
		return nil, nil
	}
	cp := *rd
	return &cp, nil
}

func (m *mockRideRepo) ListUpcoming(_ context.Context) ([]domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ride
	for _, rd := range m.rides {
		if !rd.IsArchived && rd.DepartureTime.After(time.Now()) {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (m *mockRideRepo) ListByDriver(_ context.Context, driverID int64, archived string) ([]domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ride
	for _, rd := range m.rides {
		if rd.DriverID != driverID {
			continue
		}
		if archived == domain.ArchivedOnly && !rd.IsArchived {
			continue
		}
		if archived == domain.ArchivedNone && rd.IsArchived {
			continue
		}
		out = append(out, *rd)
	}
	return out, nil
}

func (m *mockRideRepo) Filter(_ context.Context, f *domain.RideFilter) ([]domain.Ride, error) {
	rides, _ := m.ListUpcoming(context.Background())
	var out []domain.Ride
	for _, rd := range rides {
		if f.AvailableSeats > 0 && rd.AvailableSeats < f.AvailableSeats {
			continue
		}
		out = append(out, rd)
	}
	return out, nil
}

func (m *mockRideRepo) Update(_ context.Context, id int64, req *domain.StoreRideRequest) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rd, ok := m.rides[id]
	if !ok {
		return nil, nil
	}
	rd.DepartureLocation = req.DepartureLocation
	rd.Destination = req.Destination
	rd.DepartureTime = req.DepartureTime
	rd.AvailableSeats = req.AvailableSeats
	cp := *rd
	return &cp, nil
}

func (m *mockRideRepo) ToggleArchive(_ context.Context, id int64) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rd, ok := m.rides[id]
	if !ok {
		return nil, nil
	}
	rd.IsArchived = !rd.IsArchived
	cp := *rd
	return &cp, nil
}

func (m *mockRideRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.rides, id)
	return nil
}

// ---------- Tests ----------

func storeRideReq() *domain.StoreRideRequest {
	return &domain.StoreRideRequest{
		DepartureLocation: "Austin",
		Destination:       "Houston",
		DepartureTime:     time.Now().Add(24 * time.Hour),
		AvailableSeats:    3,
	}
}

func TestCreateRideRequiresVerifiedDriver(t *testing.T) {
	svc := service.NewRideService(newMockRideRepo())
	ctx := context.Background()

	cases := []struct {
		name     string
		role     string
		verified bool
		wantErr  error
	}{
		{"regular user", domain.RoleRegular, true, domain.ErrForbidden},
		{"unverified driver", domain.RoleDriver, false, domain.ErrForbidden},
		{"verified driver", domain.RoleDriver, true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tc.role, tc.verified, storeRideReq())
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateRideValidation(t *testing.T) {
	svc := service.NewRideService(newMockRideRepo())

	req := storeRideReq()
	req.DepartureTime = time.Now().Add(-time.Hour)

	_, err := svc.Create(context.Background(), 1, domain.RoleDriver, true, req)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestRideOwnership(t *testing.T) {
	repo := newMockRideRepo()
	svc := service.NewRideService(repo)
	ctx := context.Background()

	ride, err := svc.Create(ctx, 1, domain.RoleDriver, true, storeRideReq())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, 2, ride.ID, storeRideReq()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("update by stranger: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.ToggleArchive(ctx, 2, ride.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("archive by stranger: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, 2, ride.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("delete by stranger: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.Update(ctx, 1, ride.ID, storeRideReq()); err != nil {
		t.Errorf("update by owner: %v", err)
	}
	if err := svc.Delete(ctx, 1, ride.ID); err != nil {
		t.Errorf("delete by owner: %v", err)
	}
}

func TestToggleArchiveFlips(t *testing.T) {
	svc := service.NewRideService(newMockRideRepo())
	ctx := context.Background()

	ride, _ := svc.Create(ctx, 1, domain.RoleDriver, true, storeRideReq())

	archived, err := svc.ToggleArchive(ctx, 1, ride.ID)
	if err != nil {
		t.Fatalf("ToggleArchive failed: %v", err)
	}
	if !archived.IsArchived {
		t.Error("first toggle should archive")
	}

	restored, _ := svc.ToggleArchive(ctx, 1, ride.ID)
	if restored.IsArchived {
		t.Error("second toggle should restore")
	}
}

func TestGetRideNotFound(t *testing.T) {
	svc := service.NewRideService(newMockRideRepo())

	_, err := svc.Get(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMyRidesArchivedFilter(t *testing.T) {
	repo := newMockRideRepo()
	svc := service.NewRideService(repo)
	ctx := context.Background()

	active, _ := svc.Create(ctx, 1, domain.RoleDriver, true, storeRideReq())
	archived, _ := svc.Create(ctx, 1, domain.RoleDriver, true, storeRideReq())
	svc.ToggleArchive(ctx, 1, archived.ID)

	rides, err := svc.MyRides(ctx, 1, "false")
	if err != nil {
		t.Fatalf("MyRides failed: %v", err)
	}
	if len(rides) != 1 || rides[0].ID != active.ID {
		t.Errorf("active filter returned %d rides", len(rides))
	}

	rides, _ = svc.MyRides(ctx, 1, "true")
	if len(rides) != 1 || rides[0].ID != archived.ID {
		t.Errorf("archived filter returned %d rides", len(rides))
	}

	rides, _ = svc.MyRides(ctx, 1, "")
	if len(rides) != 2 {
		t.Errorf("default filter returned %d rides, want 2", len(rides))
	}

	if _, err := svc.MyRides(ctx, 1, "maybe"); err == nil {
		t.Error("invalid archived value should be rejected")
	}
}

func TestFilterValidation(t *testing.T) {
	svc := service.NewRideService(newMockRideRepo())

	_, err := svc.Filter(context.Background(), &domain.RideFilter{DepartureDate: "01-02-2026"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}
