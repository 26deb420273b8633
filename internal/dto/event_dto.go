package dto

import "time"

// Realtime event types.
const (
	EventSubmissionCreated = "submission.created"
	EventSubmissionGraded  = "submission.graded"
	EventBadgeAwarded      = "badge.awarded"
)

// Event is a realtime message delivered to a single user's open streams.
type Event struct {
	Type       string      `json:"type"`
	UserID     uint        `json:"userId"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurredAt"`
}
