package models

import "time"

// Submission is a student's written answer to an assignment.
// Grade holds the post-penalty grade; RawGrade the grade that produced it.
type Submission struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	StudentID    uint        `gorm:"not null;uniqueIndex:idx_submission_student_assignment" json:"studentId"`
	AssignmentID uint        `gorm:"not null;uniqueIndex:idx_submission_student_assignment" json:"assignmentId"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	RawGrade     *float64    `json:"rawGrade"`
	Grade        *int        `json:"grade"`
	Feedback     string      `gorm:"type:text" json:"feedback"`
	Remarks      string      `gorm:"type:text" json:"remarks"`
	Penalty      int         `gorm:"not null;default:0" json:"penalty"`
	SubmittedAt  time.Time   `gorm:"not null;index" json:"submittedAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Student      *Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
	Assignment   *Assignment `json:"assignment,omitempty"`
}

const (
	// SubmissionStatusPending marks an assignment the student has not submitted yet.
	SubmissionStatusPending = "pending"
	// SubmissionStatusSubmitted indicates the submission has not been graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}

// Status derives the lifecycle state from the grade.
func (s Submission) Status() string {
	if s.IsGraded() {
		return SubmissionStatusGraded
	}
	return SubmissionStatusSubmitted
}

// StudentUserID returns the user account behind the submitting student, or 0 when
// the student relation is not loaded.
func (s Submission) StudentUserID() uint {
	if s.Student == nil {
		return 0
	}
	return s.Student.UserID
}
