package dto

import (
	"time"

	"github.com/noah-isme/projeval-api/internal/models"
)

// BadgeAwardRequest awards a named badge to a student.
type BadgeAwardRequest struct {
	StudentID uint   `json:"studentId" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=64"`
}

// CollaboratorBadgeRequest awards the Collaborator badge.
type CollaboratorBadgeRequest struct {
	StudentID uint `json:"studentId" validate:"required,gt=0"`
}

// BadgeResponse is returned when viewing badges.
type BadgeResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	StudentID   uint      `json:"studentId"`
	AwardedDate time.Time `json:"awardedDate"`
}

// NewBadgeResponse maps a badge.
func NewBadgeResponse(badge models.Badge) BadgeResponse {
	return BadgeResponse{
		ID:          badge.ID,
		Name:        badge.Name,
		StudentID:   badge.StudentID,
		AwardedDate: badge.AwardedDate,
	}
}

// StudentResponse lists a student for badge awarding.
type StudentResponse struct {
	ID     uint   `json:"id"`
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NewStudentResponse maps a student profile with its user.
func NewStudentResponse(student models.Student) StudentResponse {
	response := StudentResponse{ID: student.ID, UserID: student.UserID}
	if student.User != nil {
		response.Name = student.User.Name
		response.Email = student.User.Email
	}
	return response
}
