package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type SubmissionFilter struct {
	Status  string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	ClassID string `form:"class_id" binding:"omitempty,uuid"`
	Search  string `form:"q"`
}

// SubmissionFile carries the uploaded assignment file from the handler to
// the submission gate.
type SubmissionFile struct {
	Reader   io.Reader
	FileName string
}

type SubmissionResponse struct {
	ID          uuid.UUID `json:"id"`
	StudentName string    `json:"student_name"`
	ClassID     uuid.UUID `json:"class_id"`
	ClassName   string    `json:"class_name"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
	Status      string    `json:"status"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
