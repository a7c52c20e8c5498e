package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClassService exposes role-scoped class projections and the proposal flow.
// Staff see all classes, teachers the classes they teach, students the
// classes they are enrolled in.
type ClassService interface {
	List(ctx context.Context, actorID uuid.UUID, filter dto.ClassFilter) (*dto.ClassListResponse, error)
	Roster(ctx context.Context, actorID, classID uuid.UUID) (*dto.RosterResponse, error)
	Propose(ctx context.Context, actorID uuid.UUID, input dto.ProposeClassRequest) (*dto.ProposalResponse, error)
	MyProposals(ctx context.Context, actorID uuid.UUID) ([]*dto.ProposalResponse, error)
}

type classService struct {
	classRepo   repository.ClassRepository
	enrollRepo  repository.EnrollmentRepository
	subRepo     repository.SubmissionRepository
	propRepo    repository.ProposalRepository
	userRepo    repository.UserRepository
	redisClient *redis.Client
	proposeRate time.Duration
}

func NewClassService(
	classRepo repository.ClassRepository,
	enrollRepo repository.EnrollmentRepository,
	subRepo repository.SubmissionRepository,
	propRepo repository.ProposalRepository,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	proposeRate time.Duration,
) ClassService {
	return &classService{
		classRepo:   classRepo,
		enrollRepo:  enrollRepo,
		subRepo:     subRepo,
		propRepo:    propRepo,
		userRepo:    userRepo,
		redisClient: redisClient,
		proposeRate: proposeRate,
	}
}

func (s *classService) List(ctx context.Context, actorID uuid.UUID, filter dto.ClassFilter) (*dto.ClassListResponse, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	repoFilter := repository.ClassFilter{
		Search: filter.Search,
		Year:   filter.Year,
	}
	switch {
	case actor.IsStaff():
		// all classes
	case actor.IsTeacher():
		repoFilter.TeacherID = &actor.ID
	default:
		repoFilter.StudentID = &actor.ID
	}

	classes, err := s.classRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	years, err := s.classRepo.DistinctYears(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ClassResponse, 0, len(classes))
	for _, class := range classes {
		data = append(data, toClassResponse(class))
	}

	return &dto.ClassListResponse{Data: data, Years: years}, nil
}

func (s *classService) Roster(ctx context.Context, actorID, classID uuid.UUID) (*dto.RosterResponse, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	class, err := s.classRepo.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}

	reviewer := actor.IsStaff() || class.TeacherID == actor.ID
	if !reviewer {
		enrolled, err := s.enrollRepo.Exists(ctx, actor.ID, classID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, fmt.Errorf("%w: no access to this class roster", apperror.ErrForbidden)
		}
	}

	enrollments, err := s.enrollRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	resp := &dto.RosterResponse{
		Class:         toClassResponse(class),
		Students:      make([]dto.RosterEntry, 0, len(enrollments)),
		TotalStudents: len(enrollments),
	}

	var stats dto.RosterStats
	for _, enrollment := range enrollments {
		entry := dto.RosterEntry{
			StudentID: enrollment.StudentID,
			Username:  enrollment.Student.Username,
			JoinedAt:  enrollment.JoinedAt,
		}
		if enrollment.Student.Profile != nil {
			entry.StudentYear = enrollment.Student.Profile.StudentYear
		}

		// Submission state is reviewer-only detail.
		if reviewer {
			sub, err := s.subRepo.FindByStudentAndClass(ctx, enrollment.StudentID, classID)
			switch {
			case err == nil:
				entry.Status = string(sub.Status)
				submittedAt := sub.SubmittedAt
				entry.SubmittedAt = &submittedAt
				stats.Submitted++
				switch sub.Status {
				case model.StatusApproved:
					stats.Approved++
				case model.StatusRejected:
					stats.Rejected++
				default:
					stats.Pending++
				}
			case errors.Is(err, apperror.ErrNotFound):
				entry.Status = "not_submitted"
				stats.NotSubmitted++
			default:
				return nil, err
			}
		}

		resp.Students = append(resp.Students, entry)
	}

	if reviewer {
		resp.Stats = &stats
	}

	return resp, nil
}

func (s *classService) Propose(ctx context.Context, actorID uuid.UUID, input dto.ProposeClassRequest) (*dto.ProposalResponse, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !actor.IsTeacher() && !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only teachers can propose classes", apperror.ErrForbidden)
	}

	if !input.Deadline.IsZero() && !input.Deadline.After(time.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", apperror.ErrInvalidInput)
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, actorID, "propose_class", s.proposeRate)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrRateLimited
	}

	proposal := &model.ProposedClass{
		TeacherID:   actor.ID,
		Name:        input.Name,
		Year:        input.Year,
		Deadline:    input.Deadline,
		Description: input.Description,
		Status:      model.StatusPending,
	}
	if err := s.propRepo.Create(ctx, proposal); err != nil {
		return nil, err
	}
	proposal.Teacher = *actor

	resp := toProposalResponse(proposal)
	return &resp, nil
}

func (s *classService) MyProposals(ctx context.Context, actorID uuid.UUID) ([]*dto.ProposalResponse, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !actor.IsTeacher() && !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only teachers have proposals", apperror.ErrForbidden)
	}

	proposals, err := s.propRepo.FindAll(ctx, "", &actor.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		resp := toProposalResponse(proposal)
		responses = append(responses, &resp)
	}
	return responses, nil
}
