package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalGrade(t *testing.T) {
	tests := []struct {
		name    string
		raw     float64
		penalty int
		want    int
	}{
		{name: "no penalty keeps grade", raw: 88, penalty: 0, want: 88},
		{name: "no penalty rounds", raw: 88.5, penalty: 0, want: 89},
		{name: "three days late rounds half up", raw: 90, penalty: 15, want: 77},
		{name: "max penalty halves", raw: 100, penalty: 50, want: 50},
		{name: "zero stays zero", raw: 0, penalty: 30, want: 0},
		{name: "small grade", raw: 3, penalty: 5, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalGrade(tt.raw, tt.penalty)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFinalGradeNeverExceedsRaw(t *testing.T) {
	for raw := 0; raw <= 100; raw++ {
		for penalty := 0; penalty <= MaxPenalty; penalty += PenaltyPerDay {
			got := FinalGrade(float64(raw), penalty)
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, raw)
		}
	}

	for _, raw := range []float64{1e7, 1e19, 1e30, math.MaxFloat64} {
		for _, penalty := range []int{0, 10, MaxPenalty} {
			got := FinalGrade(raw, penalty)
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, float64(got), raw)
			require.LessOrEqual(t, got, MaxGrade)
		}
	}
	require.True(t, IsPerfect(FinalGrade(1e19, 0), 100))
}

func TestRoundHalfUp(t *testing.T) {
	require.Equal(t, 77, RoundHalfUp(76.5))
	require.Equal(t, 76, RoundHalfUp(76.49))
	require.Equal(t, 1, RoundHalfUp(0.5))
	require.Equal(t, 0, RoundHalfUp(0.49))
	require.Equal(t, MaxGrade, RoundHalfUp(1e19))
	require.Equal(t, -MaxGrade, RoundHalfUp(-1e19))
	require.Equal(t, 0, RoundHalfUp(math.NaN()))
}

func TestPercentageScore(t *testing.T) {
	require.Equal(t, 77.0, PercentageScore(77, 100))
	require.Equal(t, 33.3, PercentageScore(1, 3))
	require.Equal(t, 0.0, PercentageScore(10, 0))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0, Clamp(-4, 50))
	require.Equal(t, 50, Clamp(72, 50))
	require.Equal(t, 43, Clamp(42.5, 50))
}

func TestIsPerfect(t *testing.T) {
	require.True(t, IsPerfect(100, 100))
	require.False(t, IsPerfect(99, 100))
}
