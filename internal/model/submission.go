package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllowedExtensions is the submission file allow-list.
var AllowedExtensions = []string{"pdf", "doc", "docx", "txt", "zip", "py", "ipynb", "md"}

// ExtensionAllowed reports whether the file name carries an allowed extension.
func ExtensionAllowed(fileName string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Submission is a student's assignment hand-in for a class. At most one row
// per (student, class); a resubmission overwrites the row and resets the
// review state to pending.
type Submission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_submission_student_class" json:"student_id"`
	Student   User      `gorm:"constraint:OnDelete:CASCADE" json:"student"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_submission_student_class" json:"class_id"`
	Class     Class     `gorm:"constraint:OnDelete:CASCADE" json:"class"`
	// FileURL is the opaque reference returned by the file store.
	FileURL     string    `gorm:"type:text;not null" json:"file_url"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	Status      Status    `gorm:"size:20;default:pending;index" json:"status"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	SubmittedAt time.Time `gorm:"autoCreateTime" json:"submitted_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
