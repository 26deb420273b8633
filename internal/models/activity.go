package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActivityActionGrade      = "submission.grade"
	ActivityActionGradeAI    = "submission.grade_ai"
	ActivityActionAwardBadge = "badge.award"
	ActivityEntitySubmission = "submission"
	ActivityEntityBadge      = "badge"
)

// ActivityLog captures auditable grading and awarding actions.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actorId"`
	ActorRole  Role              `gorm:"size:32;not null" json:"actorRole"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entityType"`
	EntityID   *uint             `json:"entityId"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Professor{},
		&Student{},
		&Project{},
		&Assignment{},
		&Submission{},
		&Badge{},
		&ActivityLog{},
	}
}
