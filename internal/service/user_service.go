package service

import (
	"context"

	"github.com/tripline/rideshare-api/internal/domain"
	"github.com/tripline/rideshare-api/internal/repository"
	"github.com/tripline/rideshare-api/pkg/logger"
)

type UserService interface {
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load user", "error", err, "user_id", userID)
		return nil, domain.ErrInternal
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to update profile", "error", err, "user_id", userID)
		return nil, domain.ErrInternal
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}
