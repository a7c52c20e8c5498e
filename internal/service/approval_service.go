package service

import (
	"context"
	"time"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/google/uuid"
)

// ApprovalService is the approval state machine for teacher applications and
// class proposals. Transitions are pending -> approved/rejected, both
// terminal; decided_at is stamped exactly once. Approvals run as a single
// store transaction including their side effects (activation, class
// materialization, enrollment fan-out).
//
// Policy note: application approval does not materialize classes. Teachers
// declare course intent at signup but classes only come into being through
// approved proposals.
type ApprovalService interface {
	ApproveApplication(ctx context.Context, id uuid.UUID) (*dto.ApproveApplicationResponse, error)
	RejectApplication(ctx context.Context, id uuid.UUID) (*dto.ApplicationResponse, error)
	ListApplications(ctx context.Context, status model.Status) ([]*dto.ApplicationResponse, error)

	ApproveProposal(ctx context.Context, id uuid.UUID) (*dto.ClassResponse, error)
	RejectProposal(ctx context.Context, id uuid.UUID) (*dto.ProposalResponse, error)
	ListProposals(ctx context.Context, status model.Status) ([]*dto.ProposalResponse, error)

	RepairProposals(ctx context.Context) (repository.RepairStats, error)
	RepairTeachers(ctx context.Context) (int, error)
}

type approvalService struct {
	appRepo             repository.ApplicationRepository
	propRepo            repository.ProposalRepository
	defaultDeadlineDays int
}

func NewApprovalService(appRepo repository.ApplicationRepository, propRepo repository.ProposalRepository, defaultDeadlineDays int) ApprovalService {
	return &approvalService{
		appRepo:             appRepo,
		propRepo:            propRepo,
		defaultDeadlineDays: defaultDeadlineDays,
	}
}

func (s *approvalService) ApproveApplication(ctx context.Context, id uuid.UUID) (*dto.ApproveApplicationResponse, error) {
	app, err := s.appRepo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ApproveApplicationResponse{
		Application:    toApplicationResponse(app),
		CreatedClasses: []dto.ClassResponse{},
	}, nil
}

func (s *approvalService) RejectApplication(ctx context.Context, id uuid.UUID) (*dto.ApplicationResponse, error) {
	app, err := s.appRepo.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toApplicationResponse(app)
	return &resp, nil
}

func (s *approvalService) ListApplications(ctx context.Context, status model.Status) ([]*dto.ApplicationResponse, error) {
	apps, err := s.appRepo.FindAll(ctx, status)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		resp := toApplicationResponse(app)
		responses = append(responses, &resp)
	}
	return responses, nil
}

func (s *approvalService) ApproveProposal(ctx context.Context, id uuid.UUID) (*dto.ClassResponse, error) {
	class, err := s.propRepo.Approve(ctx, id, s.fallbackDeadline())
	if err != nil {
		return nil, err
	}

	resp := toClassResponse(class)
	return &resp, nil
}

func (s *approvalService) RejectProposal(ctx context.Context, id uuid.UUID) (*dto.ProposalResponse, error) {
	proposal, err := s.propRepo.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toProposalResponse(proposal)
	return &resp, nil
}

func (s *approvalService) ListProposals(ctx context.Context, status model.Status) ([]*dto.ProposalResponse, error) {
	proposals, err := s.propRepo.FindAll(ctx, status, nil)
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

func (s *approvalService) RepairProposals(ctx context.Context) (repository.RepairStats, error) {
	return s.propRepo.RepairApproved(ctx, s.fallbackDeadline())
}

func (s *approvalService) RepairTeachers(ctx context.Context) (int, error) {
	return s.appRepo.RepairApproved(ctx)
}

func (s *approvalService) fallbackDeadline() time.Time {
	return time.Now().AddDate(0, 0, s.defaultDeadlineDays)
}

func toApplicationResponse(app *model.TeacherApplication) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:          app.ID,
		Username:    app.User.Username,
		Email:       app.User.Email,
		IsTeacher:   app.IsTeacher,
		CourseNames: app.CourseNames,
		Years:       app.Years,
		Status:      string(app.Status),
		CreatedAt:   app.CreatedAt,
		DecidedAt:   app.DecidedAt,
	}
}

func toProposalResponse(proposal *model.ProposedClass) dto.ProposalResponse {
	return dto.ProposalResponse{
		ID:          proposal.ID,
		TeacherName: proposal.Teacher.Username,
		Name:        proposal.Name,
		Year:        proposal.Year,
		Deadline:    proposal.Deadline,
		Description: proposal.Description,
		Status:      string(proposal.Status),
		CreatedAt:   proposal.CreatedAt,
		DecidedAt:   proposal.DecidedAt,
	}
}

func toClassResponse(class *model.Class) dto.ClassResponse {
	return dto.ClassResponse{
		ID:             class.ID,
		Name:           class.Name,
		TeacherName:    class.Teacher.Username,
		Year:           class.Year,
		Deadline:       class.Deadline,
		Description:    class.Description,
		IsPastDeadline: class.IsPastDeadline(),
	}
}
