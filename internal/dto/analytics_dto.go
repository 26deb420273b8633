package dto

// Analytics report types.
const (
	AnalyticsTypeAverageGrades      = "averageGrades"
	AnalyticsTypeMissingSubmissions = "missingSubmissions"
)

// AssignmentAnalyticsQuery selects an analytics report.
type AssignmentAnalyticsQuery struct {
	AssignmentID *uint
	ProjectID    *uint
	Type         string
}

// SubmissionSearchQuery is the filter for the professor's submission search.
type SubmissionSearchQuery struct {
	AssignmentID *uint
	ProjectID    *uint
	MinGrade     *int
	MaxGrade     *int
	IsGraded     *bool
	IsLate       *bool
	SortBy       string
	SortOrder    string
}
