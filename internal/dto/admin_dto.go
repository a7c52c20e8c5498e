package dto

import (
	"time"

	"github.com/google/uuid"
)

type StatusFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

type ApplicationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsTeacher   bool       `json:"is_teacher"`
	CourseNames []string   `json:"course_names"`
	Years       []int      `json:"years"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type ApproveApplicationResponse struct {
	Application ApplicationResponse `json:"application"`
	// Classes created by the approval. Empty under the current policy,
	// which defers materialization to class proposals.
	CreatedClasses []ClassResponse `json:"created_classes"`
}

type RepairTeachersResponse struct {
	Fixed int `json:"fixed"`
}
