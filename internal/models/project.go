package models

import "time"

// Project groups assignments under a single professor.
type Project struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	ProfessorID uint         `gorm:"index;not null" json:"professorId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Professor   *Professor   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"professor,omitempty"`
	Assignments []Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignments,omitempty"`
}
