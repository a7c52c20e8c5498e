package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is a course taught by exactly one teacher. Students of the matching
// year group are auto-enrolled when the class materializes.
type Class struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null;uniqueIndex:uq_class_name_year_teacher" json:"name"`
	TeacherID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_class_name_year_teacher" json:"teacher_id"`
	Teacher     User      `gorm:"constraint:OnDelete:RESTRICT" json:"teacher"`
	Year        int       `gorm:"not null;uniqueIndex:uq_class_name_year_teacher" json:"year"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Enrollments []Enrollment `gorm:"constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Submissions []Submission `gorm:"constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Class) IsPastDeadline() bool {
	return time.Now().After(c.Deadline)
}

// Enrollment links a student to a class. At most one row per (student, class);
// rows are never updated after creation.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_enrollment_student_class" json:"student_id"`
	Student   User      `gorm:"constraint:OnDelete:CASCADE" json:"student"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_enrollment_student_class" json:"class_id"`
	Class     Class     `gorm:"constraint:OnDelete:CASCADE" json:"class"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
