package repository

import (
	"context"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClassFilter narrows class listings. Scope fields are mutually exclusive:
// TeacherID limits to classes taught, StudentID to classes enrolled in.
type ClassFilter struct {
	TeacherID *uuid.UUID
	StudentID *uuid.UUID
	Search    string
	Year      *int
}

type ClassRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Class, error)
	FindAll(ctx context.Context, filter ClassFilter) ([]*model.Class, error)
	FindIDsByYear(ctx context.Context, year int) ([]uuid.UUID, error)
	DistinctYears(ctx context.Context) ([]int, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	var class model.Class
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("id = ?", id).
		First(&class).Error; err != nil {
		return nil, translate(err)
	}
	return &class, nil
}

func (r *classRepository) FindAll(ctx context.Context, filter ClassFilter) ([]*model.Class, error) {
	query := r.db.WithContext(ctx).
		Preload("Teacher")

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", filter.TeacherID)
	}

	if filter.StudentID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&model.Enrollment{}).Select("class_id").Where("student_id = ?", filter.StudentID),
		)
	}

	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}

	if filter.Year != nil {
		query = query.Where("year = ?", filter.Year)
	}

	var classes []*model.Class
	if err := query.Order("deadline ASC, name ASC").Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) FindIDsByYear(ctx context.Context, year int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Class{}).
		Where("year = ?", year).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *classRepository) DistinctYears(ctx context.Context) ([]int, error) {
	var years []int
	if err := r.db.WithContext(ctx).Model(&model.Class{}).
		Distinct("year").
		Order("year ASC").
		Pluck("year", &years).Error; err != nil {
		return nil, err
	}
	return years, nil
}
