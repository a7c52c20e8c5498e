package repository

import (
	"context"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionFilter narrows submission listings. Scope fields are mutually
// exclusive: StudentID for a student's own rows, TeacherID for the rows of
// classes that teacher owns.
type SubmissionFilter struct {
	StudentID *uuid.UUID
	TeacherID *uuid.UUID
	ClassID   *uuid.UUID
	Status    model.Status
	Search    string
}

type SubmissionRepository interface {
	// Upsert creates the (student, class) submission or overwrites the
	// existing row. The conflict target is the uniqueness constraint, so a
	// resubmission can never produce a second row.
	Upsert(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	FindByStudentAndClass(ctx context.Context, studentID, classID uuid.UUID) (*model.Submission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
	FindAll(ctx context.Context, filter SubmissionFilter) ([]*model.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Upsert(ctx context.Context, sub *model.Submission) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "class_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"file_url", "file_name", "feedback", "status", "updated_at",
			}),
		}).
		Create(sub).Error
	return translate(err)
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Student").
		Where("id = ?", id).
		First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindByStudentAndClass(ctx context.Context, studentID, classID uuid.UUID) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Where("student_id = ? AND class_id = ?", studentID, classID).
		First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	res := r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *submissionRepository) FindAll(ctx context.Context, filter SubmissionFilter) ([]*model.Submission, error) {
	query := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Class.Teacher").
		Preload("Student")

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", filter.StudentID)
	}

	if filter.TeacherID != nil {
		query = query.Where(
			"class_id IN (?)",
			r.db.Model(&model.Class{}).Select("id").Where("teacher_id = ?", filter.TeacherID),
		)
	}

	if filter.ClassID != nil {
		query = query.Where("class_id = ?", filter.ClassID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"class_id IN (?) OR student_id IN (?)",
			r.db.Model(&model.Class{}).Select("id").Where("LOWER(name) LIKE LOWER(?)", pattern),
			r.db.Model(&model.User{}).Select("id").Where("LOWER(username) LIKE LOWER(?)", pattern),
		)
	}

	var subs []*model.Submission
	if err := query.Order("submitted_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
