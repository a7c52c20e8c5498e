package service

import (
	"context"

	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/google/uuid"
)

// EnrollmentService is the enrollment engine: idempotent enrollment creation
// and year-based fan-out. All operations are safe to retry; the store's
// uniqueness constraint guarantees at most one row per (student, class).
type EnrollmentService interface {
	EnsureEnrollment(ctx context.Context, studentID, classID uuid.UUID) (created bool, err error)
	// FanOutYear enrolls every student of the year into every class of that
	// year. Returns the number of newly created enrollments.
	FanOutYear(ctx context.Context, year int) (int, error)
	// EnrollStudentInYear enrolls one student into all existing classes of
	// the year. Used when a profile gains a student year.
	EnrollStudentInYear(ctx context.Context, studentID uuid.UUID, year int) (int, error)
}

type enrollmentService struct {
	enrollRepo repository.EnrollmentRepository
	classRepo  repository.ClassRepository
}

func NewEnrollmentService(enrollRepo repository.EnrollmentRepository, classRepo repository.ClassRepository) EnrollmentService {
	return &enrollmentService{
		enrollRepo: enrollRepo,
		classRepo:  classRepo,
	}
}

func (s *enrollmentService) EnsureEnrollment(ctx context.Context, studentID, classID uuid.UUID) (bool, error) {
	return s.enrollRepo.EnsureEnrollment(ctx, studentID, classID)
}

func (s *enrollmentService) FanOutYear(ctx context.Context, year int) (int, error) {
	classIDs, err := s.classRepo.FindIDsByYear(ctx, year)
	if err != nil {
		return 0, err
	}
	return s.enrollRepo.FanOutYear(ctx, year, classIDs)
}

func (s *enrollmentService) EnrollStudentInYear(ctx context.Context, studentID uuid.UUID, year int) (int, error) {
	classIDs, err := s.classRepo.FindIDsByYear(ctx, year)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, classID := range classIDs {
		created, err := s.enrollRepo.EnsureEnrollment(ctx, studentID, classID)
		if err != nil {
			return count, err
		}
		if created {
			count++
		}
	}
	return count, nil
}
