package service

import (
	"context"
	"log"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/google/uuid"
)

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	// Update sets the student year. Saving a profile with a year fans out
	// enrollment across all existing classes of that year; failures there
	// are suppressed so a secondary signal can't block the primary save.
	Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type profileService struct {
	userRepo   repository.UserRepository
	enrollment EnrollmentService
}

func NewProfileService(userRepo repository.UserRepository, enrollment EnrollmentService) ProfileService {
	return &profileService{
		userRepo:   userRepo,
		enrollment: enrollment,
	}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{UserID: userID, StudentYear: input.StudentYear}
	if err := s.userRepo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	user.Profile = profile

	if input.StudentYear != nil {
		if _, err := s.enrollment.EnrollStudentInYear(ctx, userID, *input.StudentYear); err != nil {
			log.Printf("[profile] auto-enroll failed for user %s: %v", userID, err)
		}
	}

	resp := toUserResponse(user)
	return &resp, nil
}
