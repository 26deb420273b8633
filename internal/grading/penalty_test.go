package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatePenalty(t *testing.T) {
	due := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		submittedAt time.Time
		want        int
	}{
		{name: "before deadline", submittedAt: due.Add(-time.Hour), want: 0},
		{name: "exactly on deadline", submittedAt: due, want: 0},
		{name: "one second late", submittedAt: due.Add(time.Second), want: 5},
		{name: "exactly one day late", submittedAt: due.Add(24 * time.Hour), want: 5},
		{name: "just over one day late", submittedAt: due.Add(24*time.Hour + time.Minute), want: 10},
		{name: "three days late", submittedAt: time.Date(2024, time.January, 13, 0, 0, 0, 0, time.UTC), want: 15},
		{name: "ten days late hits cap", submittedAt: due.Add(10 * 24 * time.Hour), want: 50},
		{name: "a month late stays capped", submittedAt: due.AddDate(0, 1, 0), want: 50},
		{name: "centuries late stays capped", submittedAt: due.AddDate(300, 0, 0), want: 50},
		{name: "far past due date", submittedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(8000, 0, 0), want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatePenalty(tt.submittedAt, due)
			require.Equal(t, tt.want, got)
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, MaxPenalty)
		})
	}
}

func TestLatePenaltyAncientDueDate(t *testing.T) {
	due := time.Date(1700, time.January, 1, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, MaxPenalty, LatePenalty(submitted, due))

	due = time.Date(24, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, MaxPenalty, LatePenalty(submitted, due))
}

func TestDaysUntilDueAndEarlySubmission(t *testing.T) {
	due := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 8, DaysUntilDue(due.Add(-8*24*time.Hour), due))
	require.True(t, IsEarlySubmission(due.Add(-8*24*time.Hour), due))

	// 6 days and 1 hour rounds up to 7 started days.
	require.Equal(t, 7, DaysUntilDue(due.Add(-(6*24+1)*time.Hour), due))
	require.True(t, IsEarlySubmission(due.Add(-(6*24+1)*time.Hour), due))

	require.Equal(t, 6, DaysUntilDue(due.Add(-6*24*time.Hour), due))
	require.False(t, IsEarlySubmission(due.Add(-6*24*time.Hour), due))

	require.False(t, IsEarlySubmission(due.Add(time.Hour), due))
}

func TestIsLate(t *testing.T) {
	due := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	require.False(t, IsLate(due, due))
	require.True(t, IsLate(due.Add(time.Nanosecond), due))
}
