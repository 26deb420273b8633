package dto

import (
	"time"

	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
)

// SubmissionCreateRequest is the student's written answer.
type SubmissionCreateRequest struct {
	AssignmentID uint   `json:"assignmentId" validate:"required,gt=0"`
	Content      string `json:"content" validate:"required,max=100000"`
}

// GradeSubmissionRequest records a manual grade. Grade is the raw grade before penalty.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=1000000"`
	Remarks  string   `json:"remarks" validate:"max=5000"`
	Feedback string   `json:"feedback" validate:"max=20000"`
}

// SubmissionListQuery narrows the role-scoped submission list.
type SubmissionListQuery struct {
	AssignmentID *uint
	StudentID    *uint
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	AssignmentID    uint      `json:"assignmentId"`
	AssignmentName  string    `json:"assignmentName,omitempty"`
	ProjectID       uint      `json:"projectId,omitempty"`
	ProjectName     string    `json:"projectName,omitempty"`
	StudentID       uint      `json:"studentId"`
	StudentName     string    `json:"studentName,omitempty"`
	Content         string    `json:"content"`
	RawGrade        *float64  `json:"rawGrade"`
	Grade           *int      `json:"grade"`
	Feedback        string    `json:"feedback"`
	Remarks         string    `json:"remarks"`
	Penalty         int       `json:"penalty"`
	Status          string    `json:"status"`
	IsLate          bool      `json:"isLate"`
	DueDate         time.Time `json:"dueDate,omitempty"`
	MaxPoints       int       `json:"maxPoints,omitempty"`
	PercentageScore *float64  `json:"percentageScore"`
	SubmittedAt     time.Time `json:"submittedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	BadgesAwarded   []string  `json:"badgesAwarded,omitempty"`
}

// NewSubmissionResponse maps a submission with whatever relations are loaded.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Content:      submission.Content,
		RawGrade:     submission.RawGrade,
		Grade:        submission.Grade,
		Feedback:     submission.Feedback,
		Remarks:      submission.Remarks,
		Penalty:      submission.Penalty,
		Status:       submission.Status(),
		SubmittedAt:  submission.SubmittedAt,
		UpdatedAt:    submission.UpdatedAt,
	}

	if assignment := submission.Assignment; assignment != nil {
		response.AssignmentName = assignment.Name
		response.DueDate = assignment.DueDate
		response.MaxPoints = assignment.MaxPoints
		response.IsLate = grading.IsLate(submission.SubmittedAt, assignment.DueDate)
		if assignment.Project != nil {
			response.ProjectID = assignment.Project.ID
			response.ProjectName = assignment.Project.Name
		}
		if submission.Grade != nil {
			percentage := grading.PercentageScore(*submission.Grade, assignment.MaxPoints)
			response.PercentageScore = &percentage
		}
	}

	if submission.Student != nil && submission.Student.User != nil {
		response.StudentName = submission.Student.User.Name
	}

	return response
}

// NewSubmissionResponses maps a slice of submissions.
func NewSubmissionResponses(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
