package dto

import (
	"time"

	"github.com/google/uuid"
)

type ClassFilter struct {
	Search string `form:"q"`
	Year   *int   `form:"year" binding:"omitempty,min=1,max=12"`
}

type ClassResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	TeacherName    string    `json:"teacher_name"`
	Year           int       `json:"year"`
	Deadline       time.Time `json:"deadline"`
	Description    string    `json:"description"`
	IsPastDeadline bool      `json:"is_past_deadline"`
}

type ClassListResponse struct {
	Data  []ClassResponse `json:"data"`
	Years []int           `json:"years"`
}

type ProposeClassRequest struct {
	Name        string    `json:"name" binding:"required,max=120"`
	Year        int       `json:"year" binding:"required,min=1,max=12"`
	Deadline    time.Time `json:"deadline" binding:"futuredate"`
	Description string    `json:"description"`
}

type ProposalResponse struct {
	ID          uuid.UUID  `json:"id"`
	TeacherName string     `json:"teacher_name"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	Deadline    time.Time  `json:"deadline"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// RosterEntry pairs an enrolled student with their submission state. Status
// is "not_submitted" when no submission exists; submission details are only
// populated for teacher/staff viewers.
type RosterEntry struct {
	StudentID   uuid.UUID  `json:"student_id"`
	Username    string     `json:"username"`
	StudentYear *int       `json:"student_year,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	Status      string     `json:"status,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type RosterStats struct {
	Submitted    int `json:"submitted"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
	Pending      int `json:"pending"`
	NotSubmitted int `json:"not_submitted"`
}

type RosterResponse struct {
	Class         ClassResponse `json:"class"`
	Students      []RosterEntry `json:"students"`
	TotalStudents int           `json:"total_students"`
	Stats         *RosterStats  `json:"stats,omitempty"`
}
