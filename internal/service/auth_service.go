package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupRequest) (*dto.SignupResponse, error)
	Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	appRepo    repository.ApplicationRepository
	enrollment EnrollmentService
	notifier   AdminNotifier
	jwtSecret  string
	tokenTTL   time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	appRepo repository.ApplicationRepository,
	enrollment EnrollmentService,
	notifier AdminNotifier,
	jwtSecret string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		appRepo:    appRepo,
		enrollment: enrollment,
		notifier:   notifier,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupRequest) (*dto.SignupResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrDuplicateEntity)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(ctx, input.Username); err == nil {
		return nil, fmt.Errorf("%w: username already taken", apperror.ErrDuplicateEntity)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	role, err := s.userRepo.FindRoleByName(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roleID := role.ID
	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		RoleID:       &roleID,
		// Teacher accounts cannot log in until their application is approved.
		IsActive: !input.IsTeacher,
	}
	profile := &model.Profile{StudentYear: input.StudentYear}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		return nil, err
	}
	user.Role = *role
	user.Profile = profile

	applicationPending := false
	if input.IsTeacher {
		app := &model.TeacherApplication{
			UserID:    user.ID,
			IsTeacher: true,
			// Course intent is declared later through class proposals.
			CourseNames: []string{},
			Years:       []int{},
			Status:      model.StatusPending,
		}
		if err := s.appRepo.Create(ctx, app); err != nil {
			return nil, err
		}
		applicationPending = true

		if s.notifier != nil {
			s.notifier.NotifyTeacherApplication(ctx, user, app)
		}
	}

	// A non-null year always fans out, even while a teacher application is
	// pending. Best effort: a fan-out failure must not fail the signup.
	if input.StudentYear != nil {
		if _, err := s.enrollment.EnrollStudentInYear(ctx, user.ID, *input.StudentYear); err != nil {
			log.Printf("[signup] auto-enroll failed for user %s: %v", user.ID, err)
		}
	}

	return &dto.SignupResponse{
		User:               toUserResponse(user),
		ApplicationPending: applicationPending,
	}, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account awaiting approval", apperror.ErrForbidden)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role.Name,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	if user.Profile != nil {
		resp.StudentYear = user.Profile.StudentYear
	}
	return resp
}
