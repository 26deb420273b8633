package models

import "time"

const (
	BadgeEarlyBird     = "EarlyBird"
	BadgePerfectionist = "Perfectionist"
	BadgeCollaborator  = "Collaborator"
)

// Badge is an achievement awarded to a student. A student holds each name at most once.
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_badge_student_name" json:"name"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_badge_student_name" json:"studentId"`
	AwardedDate time.Time `gorm:"not null" json:"awardedDate"`
	Student     *Student  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}
