package dto

import (
	"time"

	"github.com/noah-isme/projeval-api/internal/models"
)

// ProjectRequest creates or updates a project.
type ProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// AssignmentSummary is an assignment nested inside a project.
type AssignmentSummary struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	DueDate         time.Time `json:"dueDate"`
	MaxPoints       int       `json:"maxPoints"`
	SubmissionCount *int64    `json:"submissionCount,omitempty"`
}

// ProjectResponse is returned when viewing projects.
type ProjectResponse struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	ProfessorID   uint                `json:"professorId"`
	ProfessorName string              `json:"professorName,omitempty"`
	Assignments   []AssignmentSummary `json:"assignments"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// NewProjectResponse maps a project. Submission counts are attached when provided.
func NewProjectResponse(project models.Project, counts map[uint]int64) ProjectResponse {
	response := ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		ProfessorID: project.ProfessorID,
		Assignments: make([]AssignmentSummary, 0, len(project.Assignments)),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.Professor != nil && project.Professor.User != nil {
		response.ProfessorName = project.Professor.User.Name
	}

	for _, assignment := range project.Assignments {
		summary := AssignmentSummary{
			ID:        assignment.ID,
			Name:      assignment.Name,
			DueDate:   assignment.DueDate,
			MaxPoints: assignment.MaxPoints,
		}
		if counts != nil {
			count := counts[assignment.ID]
			summary.SubmissionCount = &count
		}
		response.Assignments = append(response.Assignments, summary)
	}

	return response
}
