package dto

import (
	"time"

	"github.com/noah-isme/projeval-api/internal/models"
)

// RegisterRequest creates an account with the matching role profile.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=professor student"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	ProfessorID *uint       `json:"professorId,omitempty"`
	StudentID   *uint       `json:"studentId,omitempty"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// NewUserResponse maps a user and its profile.
func NewUserResponse(user models.User) UserResponse {
	response := UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if user.Professor != nil {
		id := user.Professor.ID
		response.ProfessorID = &id
	}
	if user.Student != nil {
		id := user.Student.ID
		response.StudentID = &id
	}
	return response
}
