package models

import "time"

// DefaultMaxPoints is applied when an assignment is created without a maximum.
const DefaultMaxPoints = 100

// Assignment is a gradable task inside a project.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Rubrics     string       `gorm:"type:text" json:"rubrics"`
	DueDate     time.Time    `gorm:"not null;index" json:"dueDate"`
	MaxPoints   int          `gorm:"not null;default:100" json:"maxPoints"`
	ProjectID   uint         `gorm:"index;not null" json:"projectId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Project     *Project     `json:"project,omitempty"`
	Submissions []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submissions,omitempty"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
