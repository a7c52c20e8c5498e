package service

import (
	"context"
	"fmt"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/earlypass/classpass-api/pkg/storage"
	"github.com/google/uuid"
)

// SubmissionService is the submission gate. Submit requires an enrollment
// and an open deadline and always resets the review state to pending;
// Decide requires staff or the owning teacher and is not deadline-gated, so
// a late submission can still be approved.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, classID uuid.UUID, file dto.SubmissionFile, feedback string) (*dto.SubmissionResponse, error)
	Decide(ctx context.Context, actorID, submissionID uuid.UUID, outcome model.Status) (*dto.SubmissionResponse, error)
	List(ctx context.Context, actorID uuid.UUID, filter dto.SubmissionFilter) ([]*dto.SubmissionResponse, error)
}

type submissionService struct {
	subRepo     repository.SubmissionRepository
	enrollRepo  repository.EnrollmentRepository
	classRepo   repository.ClassRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	enrollRepo repository.EnrollmentRepository,
	classRepo repository.ClassRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
) SubmissionService {
	return &submissionService{
		subRepo:     subRepo,
		enrollRepo:  enrollRepo,
		classRepo:   classRepo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

func (s *submissionService) Submit(ctx context.Context, studentID, classID uuid.UUID, file dto.SubmissionFile, feedback string) (*dto.SubmissionResponse, error) {
	student, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if student.IsTeacher() {
		return nil, fmt.Errorf("%w: teachers cannot submit assignments", apperror.ErrForbidden)
	}

	enrolled, err := s.enrollRepo.Exists(ctx, studentID, classID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperror.ErrNotEnrolled
	}

	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}

	// The resulting status is always pending, so a passed deadline blocks
	// every submit. Decisions on existing submissions are unaffected.
	if class.IsPastDeadline() {
		return nil, apperror.ErrDeadlinePassed
	}

	if !model.ExtensionAllowed(file.FileName) {
		return nil, fmt.Errorf("%w: file type not allowed", apperror.ErrInvalidInput)
	}

	folder := fmt.Sprintf("submissions/%s/%s", classID, studentID)
	fileURL, err := s.fileStorage.Upload(ctx, file.Reader, folder, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store submission file: %w", err)
	}

	sub := &model.Submission{
		StudentID: studentID,
		ClassID:   classID,
		FileURL:   fileURL,
		FileName:  file.FileName,
		Feedback:  feedback,
		Status:    model.StatusPending,
	}
	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	// Re-fetch so the response reflects the canonical row, whichever of
	// create or overwrite the upsert took.
	stored, err := s.subRepo.FindByStudentAndClass(ctx, studentID, classID)
	if err != nil {
		return nil, err
	}
	stored.Student = *student

	resp := toSubmissionResponse(stored)
	return &resp, nil
}

func (s *submissionService) Decide(ctx context.Context, actorID, submissionID uuid.UUID, outcome model.Status) (*dto.SubmissionResponse, error) {
	if outcome != model.StatusApproved && outcome != model.StatusRejected {
		return nil, fmt.Errorf("%w: outcome must be approved or rejected", apperror.ErrInvalidInput)
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !actor.IsStaff() && sub.Class.TeacherID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	if err := s.subRepo.UpdateStatus(ctx, submissionID, outcome); err != nil {
		return nil, err
	}
	sub.Status = outcome

	resp := toSubmissionResponse(sub)
	return &resp, nil
}

func (s *submissionService) List(ctx context.Context, actorID uuid.UUID, filter dto.SubmissionFilter) ([]*dto.SubmissionResponse, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		Status: model.Status(filter.Status),
		Search: filter.Search,
	}
	if filter.ClassID != "" {
		classID, err := uuid.Parse(filter.ClassID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid class id", apperror.ErrInvalidInput)
		}
		repoFilter.ClassID = &classID
	}

	switch {
	case actor.IsStaff():
		// all submissions
	case actor.IsTeacher():
		repoFilter.TeacherID = &actor.ID
	default:
		repoFilter.StudentID = &actor.ID
	}

	subs, err := s.subRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		resp := toSubmissionResponse(sub)
		responses = append(responses, &resp)
	}
	return responses, nil
}

func toSubmissionResponse(sub *model.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:          sub.ID,
		StudentName: sub.Student.Username,
		ClassID:     sub.ClassID,
		ClassName:   sub.Class.Name,
		FileURL:     sub.FileURL,
		FileName:    sub.FileName,
		Status:      string(sub.Status),
		Feedback:    sub.Feedback,
		SubmittedAt: sub.SubmittedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}
