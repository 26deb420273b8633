package dto

import (
	"time"

	"github.com/noah-isme/projeval-api/internal/models"
)

// AssignmentCreateRequest creates an assignment inside a project.
type AssignmentCreateRequest struct {
	ProjectID   uint      `json:"projectId" validate:"required,gt=0"`
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description" validate:"max=5000"`
	Rubrics     string    `json:"rubrics" validate:"max=10000"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	MaxPoints   int       `json:"maxPoints" validate:"omitempty,gt=0,lte=1000000"`
}

// AssignmentUpdateRequest replaces the editable fields of an assignment.
type AssignmentUpdateRequest struct {
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description" validate:"max=5000"`
	Rubrics     string    `json:"rubrics" validate:"max=10000"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	MaxPoints   int       `json:"maxPoints" validate:"omitempty,gt=0,lte=1000000"`
}

// AssignmentResponse is returned when viewing assignments. The submission fields
// are filled for students and describe their own submission.
type AssignmentResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Rubrics         string    `json:"rubrics"`
	DueDate         time.Time `json:"dueDate"`
	MaxPoints       int       `json:"maxPoints"`
	ProjectID       uint      `json:"projectId"`
	ProjectName     string    `json:"projectName,omitempty"`
	SubmissionCount *int64    `json:"submissionCount,omitempty"`
	Status          string    `json:"status,omitempty"`
	Submitted       *bool     `json:"submitted,omitempty"`
	SubmissionID    *uint     `json:"submissionId,omitempty"`
	Grade           *int      `json:"grade,omitempty"`
	DaysUntilDue    *int      `json:"daysUntilDue,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewAssignmentResponse maps an assignment.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:          assignment.ID,
		Name:        assignment.Name,
		Description: assignment.Description,
		Rubrics:     assignment.Rubrics,
		DueDate:     assignment.DueDate,
		MaxPoints:   assignment.MaxPoints,
		ProjectID:   assignment.ProjectID,
		CreatedAt:   assignment.CreatedAt,
		UpdatedAt:   assignment.UpdatedAt,
	}
	if assignment.Project != nil {
		response.ProjectName = assignment.Project.Name
	}
	return response
}

// WithSubmission attaches the caller's submission state.
func (r AssignmentResponse) WithSubmission(submission *models.Submission) AssignmentResponse {
	submitted := submission != nil
	r.Submitted = &submitted
	if submission == nil {
		r.Status = models.SubmissionStatusPending
		return r
	}

	id := submission.ID
	r.SubmissionID = &id
	r.Grade = submission.Grade
	r.Status = submission.Status()
	return r
}
