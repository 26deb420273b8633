package grading

import "math"

// FinalGrade applies a percentage penalty to a raw grade.
// The result is rounded half-up and never drops below zero.
func FinalGrade(raw float64, penalty int) int {
	if penalty <= 0 {
		return RoundHalfUp(raw)
	}

	adjusted := raw - raw*float64(penalty)/100
	if adjusted < 0 {
		adjusted = 0
	}
	return RoundHalfUp(adjusted)
}

// MaxGrade bounds any stored grade so the conversion to int cannot overflow.
const MaxGrade = 1_000_000

// RoundHalfUp rounds x to the nearest integer, with .5 going up.
// The result is bounded to [-MaxGrade, MaxGrade].
func RoundHalfUp(x float64) int {
	rounded := math.Floor(x + 0.5)
	switch {
	case math.IsNaN(rounded):
		return 0
	case rounded > MaxGrade:
		return MaxGrade
	case rounded < -MaxGrade:
		return -MaxGrade
	}
	return int(rounded)
}

// PercentageScore expresses a final grade relative to maxPoints with one decimal.
func PercentageScore(final int, maxPoints int) float64 {
	if maxPoints <= 0 {
		return 0
	}
	percentage := float64(final) / float64(maxPoints) * 100
	return math.Round(percentage*10) / 10
}

// Clamp bounds value to [0, maxPoints] and rounds it half-up.
func Clamp(value float64, maxPoints int) int {
	if value < 0 {
		value = 0
	}
	if maxPoints > 0 && value > float64(maxPoints) {
		value = float64(maxPoints)
	}
	return RoundHalfUp(value)
}

// IsPerfect reports whether a final grade reaches the assignment maximum.
func IsPerfect(final int, maxPoints int) bool {
	return final >= maxPoints
}
