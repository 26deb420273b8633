package grading

import (
	"math"
	"time"
)

const (
	// PenaltyPerDay is the percentage deducted for each started day past the deadline.
	PenaltyPerDay = 5
	// MaxPenalty caps the late deduction percentage.
	MaxPenalty = 50
	// EarlySubmissionDays is the minimum lead time that earns the EarlyBird badge.
	EarlySubmissionDays = 7
)

const day = 24 * time.Hour

// LatePenalty returns the percentage penalty for work turned in at submittedAt.
// Every started day past the deadline costs PenaltyPerDay, up to MaxPenalty.
func LatePenalty(submittedAt, dueDate time.Time) int {
	if !submittedAt.After(dueDate) {
		return 0
	}

	late := submittedAt.Sub(dueDate)
	if late >= (MaxPenalty/PenaltyPerDay)*day {
		return MaxPenalty
	}
	daysLate := int((late + day - 1) / day)

	penalty := daysLate * PenaltyPerDay
	if penalty > MaxPenalty {
		return MaxPenalty
	}
	return penalty
}

// DaysUntilDue returns the number of started days left before dueDate.
// The result is zero or negative once the deadline has passed.
func DaysUntilDue(now, dueDate time.Time) int {
	return int(math.Ceil(dueDate.Sub(now).Hours() / 24))
}

// IsEarlySubmission reports whether work turned in at now qualifies as early.
func IsEarlySubmission(now, dueDate time.Time) bool {
	return DaysUntilDue(now, dueDate) >= EarlySubmissionDays
}

// IsLate reports whether submittedAt is past the deadline.
func IsLate(submittedAt, dueDate time.Time) bool {
	return submittedAt.After(dueDate)
}
