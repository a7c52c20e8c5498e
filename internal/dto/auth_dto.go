package dto

import (
	"time"

	"github.com/google/uuid"
)

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	// IsTeacher marks a teacher self-declaration; the account stays inactive
	// until an admin approves the resulting application.
	IsTeacher   bool `json:"is_teacher"`
	StudentYear *int `json:"student_year" binding:"omitempty,min=1,max=12"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	StudentYear *int      `json:"student_year,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type SignupResponse struct {
	User UserResponse `json:"user"`
	// ApplicationPending is true when a teacher application was filed and
	// the account awaits approval.
	ApplicationPending bool `json:"application_pending"`
}

type UpdateProfileRequest struct {
	StudentYear *int `json:"student_year" binding:"omitempty,min=1,max=12"`
}
