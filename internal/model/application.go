package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TeacherApplication is a teacher self-declaration made at signup. An admin
// must approve it before the account can log in and propose classes.
// CourseNames and Years capture the declared teaching intent; the current
// policy defers class materialization to ProposedClass, so they are kept for
// review context only.
type TeacherApplication struct {
	ID          uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                `gorm:"type:uuid;not null" json:"user_id"`
	User        User                     `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	IsTeacher   bool                     `gorm:"default:false" json:"is_teacher"`
	CourseNames datatypes.JSONSlice[string] `json:"course_names"`
	Years       datatypes.JSONSlice[int] `json:"years"`
	Status      Status                   `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt   time.Time                `gorm:"autoCreateTime" json:"created_at"`
	// DecidedAt is stamped exactly once, when the status leaves pending.
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

func (a *TeacherApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ProposedClass is a class proposal made by an approved teacher. Approval
// materializes (or refreshes) the concrete Class row and fans out
// enrollments. The unique index includes status so a teacher may re-propose
// the same (name, year) after a rejection.
type ProposedClass struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_proposal_teacher_name_year_status" json:"teacher_id"`
	Teacher     User      `gorm:"constraint:OnDelete:CASCADE" json:"teacher"`
	Name        string    `gorm:"size:120;not null;uniqueIndex:uq_proposal_teacher_name_year_status" json:"name"`
	Year        int       `gorm:"not null;uniqueIndex:uq_proposal_teacher_name_year_status" json:"year"`
	Deadline    time.Time `json:"deadline"`
	Description string    `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"size:20;default:pending;uniqueIndex:uq_proposal_teacher_name_year_status;index" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

func (p *ProposedClass) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
