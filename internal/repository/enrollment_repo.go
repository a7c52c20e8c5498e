package repository

import (
	"context"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository interface {
	// EnsureEnrollment creates the (student, class) link if absent. The
	// unique constraint is the sole race arbiter: concurrent calls for the
	// same pair result in exactly one row.
	EnsureEnrollment(ctx context.Context, studentID, classID uuid.UUID) (created bool, err error)
	// FanOutYear enrolls every student whose profile year matches into each
	// of the given classes. Safe to call repeatedly; returns the number of
	// newly created rows.
	FanOutYear(ctx context.Context, year int, classIDs []uuid.UUID) (int, error)
	Exists(ctx context.Context, studentID, classID uuid.UUID) (bool, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]*model.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) EnsureEnrollment(ctx context.Context, studentID, classID uuid.UUID) (bool, error) {
	return ensureEnrollment(r.db.WithContext(ctx), studentID, classID)
}

func (r *enrollmentRepository) FanOutYear(ctx context.Context, year int, classIDs []uuid.UUID) (int, error) {
	return fanOutYear(r.db.WithContext(ctx), year, classIDs)
}

func (r *enrollmentRepository) Exists(ctx context.Context, studentID, classID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("student_id = ? AND class_id = ?", studentID, classID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]*model.Enrollment, error) {
	var enrollments []*model.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.Profile").
		Where("class_id = ?", classID).
		Order("joined_at ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ensureEnrollment is the tx-scoped insert shared with the approval
// transaction. ON CONFLICT DO NOTHING makes it idempotent; RowsAffected
// tells whether a row was actually created.
func ensureEnrollment(tx *gorm.DB, studentID, classID uuid.UUID) (bool, error) {
	enrollment := model.Enrollment{StudentID: studentID, ClassID: classID}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "class_id"}},
		DoNothing: true,
	}).Create(&enrollment)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func fanOutYear(tx *gorm.DB, year int, classIDs []uuid.UUID) (int, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}

	studentIDs, err := studentIDsByYear(tx, year)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, studentID := range studentIDs {
		for _, classID := range classIDs {
			created, err := ensureEnrollment(tx, studentID, classID)
			if err != nil {
				return count, err
			}
			if created {
				count++
			}
		}
	}
	return count, nil
}
