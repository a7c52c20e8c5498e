package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepairStats reports what a repair pass over approved proposals created.
type RepairStats struct {
	Proposals   int `json:"proposals"`
	Classes     int `json:"classes"`
	Enrollments int `json:"enrollments"`
}

type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.ProposedClass) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProposedClass, error)
	FindAll(ctx context.Context, status model.Status, teacherID *uuid.UUID) ([]*model.ProposedClass, error)
	// Approve transitions a pending proposal and materializes its Class in a
	// single transaction: status stamp, class get-or-create (refreshing
	// deadline and description on an existing row) and enrollment fan-out
	// commit or roll back together. Re-approving an approved proposal only
	// re-runs the materialization, repairing a missing Class.
	Approve(ctx context.Context, id uuid.UUID, fallbackDeadline time.Time) (*model.Class, error)
	Reject(ctx context.Context, id uuid.UUID) (*model.ProposedClass, error)
	// RepairApproved re-materializes every approved proposal.
	RepairApproved(ctx context.Context, fallbackDeadline time.Time) (RepairStats, error)
}

type proposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *model.ProposedClass) error {
	return translate(r.db.WithContext(ctx).Create(proposal).Error)
}

func (r *proposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProposedClass, error) {
	var proposal model.ProposedClass
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("id = ?", id).
		First(&proposal).Error; err != nil {
		return nil, translate(err)
	}
	return &proposal, nil
}

func (r *proposalRepository) FindAll(ctx context.Context, status model.Status, teacherID *uuid.UUID) ([]*model.ProposedClass, error) {
	query := r.db.WithContext(ctx).Preload("Teacher")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if teacherID != nil {
		query = query.Where("teacher_id = ?", teacherID)
	}

	var proposals []*model.ProposedClass
	if err := query.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepository) Approve(ctx context.Context, id uuid.UUID, fallbackDeadline time.Time) (*model.Class, error) {
	var class *model.Class

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proposal model.ProposedClass
		if err := tx.Where("id = ?", id).First(&proposal).Error; err != nil {
			return translate(err)
		}

		if proposal.Status == model.StatusRejected {
			return fmt.Errorf("%w: proposal already rejected", apperror.ErrInvalidInput)
		}

		if proposal.Status != model.StatusApproved {
			now := time.Now()
			// The unique (teacher, name, year, status) index can reject this
			// update when an approved duplicate already exists.
			if err := tx.Model(&proposal).
				Updates(map[string]interface{}{"status": model.StatusApproved, "decided_at": now}).Error; err != nil {
				return translate(err)
			}
		}

		// Materialization always re-runs, even when the proposal was already
		// approved: a missing or stale Class gets recreated or refreshed.
		var err error
		class, _, err = materializeClass(tx, &proposal, fallbackDeadline)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ?", class.TeacherID).First(&class.Teacher).Error; err != nil {
			return translate(err)
		}

		_, err = fanOutYear(tx, proposal.Year, []uuid.UUID{class.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	return class, nil
}

func (r *proposalRepository) Reject(ctx context.Context, id uuid.UUID) (*model.ProposedClass, error) {
	var proposal model.ProposedClass

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&proposal).Error; err != nil {
			return translate(err)
		}

		if proposal.Status != model.StatusPending {
			return fmt.Errorf("%w: proposal already decided", apperror.ErrInvalidInput)
		}

		now := time.Now()
		if err := tx.Model(&proposal).
			Updates(map[string]interface{}{"status": model.StatusRejected, "decided_at": now}).Error; err != nil {
			return err
		}
		proposal.Status = model.StatusRejected
		proposal.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &proposal, nil
}

func (r *proposalRepository) RepairApproved(ctx context.Context, fallbackDeadline time.Time) (RepairStats, error) {
	var stats RepairStats

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proposals []*model.ProposedClass
		if err := tx.Where("status = ?", model.StatusApproved).Find(&proposals).Error; err != nil {
			return err
		}
		stats.Proposals = len(proposals)

		for _, proposal := range proposals {
			class, created, err := materializeClass(tx, proposal, fallbackDeadline)
			if err != nil {
				return err
			}
			if created {
				stats.Classes++
			}

			enrolled, err := fanOutYear(tx, proposal.Year, []uuid.UUID{class.ID})
			if err != nil {
				return err
			}
			stats.Enrollments += enrolled
		}
		return nil
	})
	if err != nil {
		return RepairStats{}, err
	}

	return stats, nil
}

// materializeClass gets or creates the Class keyed by (name, year, teacher).
// The proposal is the source of truth post-approval: an existing Class has
// its deadline and description overwritten with the proposal's values.
func materializeClass(tx *gorm.DB, proposal *model.ProposedClass, fallbackDeadline time.Time) (*model.Class, bool, error) {
	deadline := proposal.Deadline
	if deadline.IsZero() {
		deadline = fallbackDeadline
	}

	var class model.Class
	err := tx.Where("name = ? AND year = ? AND teacher_id = ?",
		proposal.Name, proposal.Year, proposal.TeacherID).
		First(&class).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		class = model.Class{
			Name:        proposal.Name,
			TeacherID:   proposal.TeacherID,
			Year:        proposal.Year,
			Deadline:    deadline,
			Description: proposal.Description,
		}
		createErr := tx.Create(&class).Error
		if createErr == nil {
			return &class, true, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, false, createErr
		}
		// Lost a create race; fall through to fetch and refresh the winner.
		if err := tx.Where("name = ? AND year = ? AND teacher_id = ?",
			proposal.Name, proposal.Year, proposal.TeacherID).
			First(&class).Error; err != nil {
			return nil, false, translate(err)
		}
	} else if err != nil {
		return nil, false, err
	}

	if err := tx.Model(&class).
		Updates(map[string]interface{}{"deadline": deadline, "description": proposal.Description}).Error; err != nil {
		return nil, false, err
	}
	class.Deadline = deadline
	class.Description = proposal.Description

	return &class, false, nil
}
