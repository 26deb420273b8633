package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
)

// AssignmentGradeStats aggregates grades over one assignment's submissions.
type AssignmentGradeStats struct {
	AssignmentID    uint    `json:"assignmentId"`
	AssignmentName  string  `json:"assignmentName"`
	SubmissionCount int64   `json:"submissionCount"`
	GradedCount     int64   `json:"gradedCount"`
	AverageGrade    float64 `json:"averageGrade"`
	HighestGrade    *int64  `json:"highestGrade"`
	LowestGrade     *int64  `json:"lowestGrade"`
}

// MissingSubmission is a student who has not submitted an assignment.
type MissingSubmission struct {
	StudentID uint   `json:"studentId"`
	UserID    uint   `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// LeaderboardEntry ranks a student by average grade across all submissions.
type LeaderboardEntry struct {
	Rank            int     `gorm:"-" json:"rank"`
	StudentID       uint    `json:"studentId"`
	Name            string  `json:"name"`
	AverageGrade    float64 `json:"averageGrade"`
	SubmissionCount int64   `json:"submissionCount"`
}

// ProjectSubmissionCount is the number of submissions received by a project.
type ProjectSubmissionCount struct {
	ProjectID       uint   `json:"projectId"`
	ProjectName     string `json:"projectName"`
	SubmissionCount int64  `json:"count"`
}

// Sort keys accepted by the submission search.
const (
	SortBySubmittedAt = "submittedAt"
	SortByGrade       = "grade"
	SortByStudentName = "studentName"
)

var searchSortColumns = map[string]string{
	SortBySubmittedAt: "s.submitted_at",
	SortByGrade:       "s.grade",
	SortByStudentName: "u.name",
}

// SubmissionSearchFilter narrows the professor's submission search.
type SubmissionSearchFilter struct {
	ProfessorID  uint
	AssignmentID *uint
	ProjectID    *uint
	MinGrade     *int
	MaxGrade     *int
	IsGraded     *bool
	IsLate       *bool
	SortBy       string
	SortOrder    string
}

// Normalize replaces unknown sort options with submittedAt descending.
func (f SubmissionSearchFilter) Normalize() SubmissionSearchFilter {
	if _, ok := searchSortColumns[f.SortBy]; !ok {
		f.SortBy = SortBySubmittedAt
	}
	order := strings.ToLower(f.SortOrder)
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	f.SortOrder = order
	return f
}

// SubmissionSearchRow is one result of the submission search with derived grading fields.
type SubmissionSearchRow struct {
	SubmissionID    uint      `json:"submissionId"`
	SubmittedAt     time.Time `json:"submittedAt"`
	Grade           *int      `json:"grade"`
	RawGrade        *float64  `json:"rawGrade"`
	Penalty         int       `json:"penalty"`
	Remarks         string    `json:"remarks"`
	AssignmentID    uint      `json:"assignmentId"`
	AssignmentName  string    `json:"assignmentName"`
	DueDate         time.Time `json:"dueDate"`
	MaxPoints       int       `json:"maxPoints"`
	StudentID       uint      `json:"studentId"`
	UserID          uint      `json:"userId"`
	StudentName     string    `json:"studentName"`
	StudentEmail    string    `json:"studentEmail"`
	ProjectID       uint      `json:"projectId"`
	ProjectName     string    `json:"projectName"`
	IsLate          bool      `gorm:"-" json:"isLate"`
	FinalGrade      *int      `gorm:"-" json:"finalGrade"`
	PercentageScore *float64  `gorm:"-" json:"percentageScore"`
}

// AnalyticsRepository runs the read-only aggregate queries.
type AnalyticsRepository interface {
	AssignmentGradeStats(ctx context.Context, assignmentID uint) ([]AssignmentGradeStats, error)
	ProjectGradeStats(ctx context.Context, projectID uint) ([]AssignmentGradeStats, error)
	MissingSubmissions(ctx context.Context, assignmentID uint) ([]MissingSubmission, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	SearchSubmissions(ctx context.Context, filter SubmissionSearchFilter) ([]SubmissionSearchRow, error)
	ProjectSubmissionCounts(ctx context.Context, professorID uint) ([]ProjectSubmissionCount, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const gradeStatsQuery = `
SELECT a.id AS assignment_id,
       a.name AS assignment_name,
       COUNT(s.id) AS submission_count,
       COUNT(s.grade) AS graded_count,
       CAST(COALESCE(AVG(s.grade), 0) AS FLOAT) AS average_grade,
       MAX(s.grade) AS highest_grade,
       MIN(s.grade) AS lowest_grade
FROM assignments a
LEFT JOIN submissions s ON s.assignment_id = a.id
WHERE %s
GROUP BY a.id, a.name, a.due_date
ORDER BY a.due_date ASC, a.id ASC`

func (r *analyticsRepository) AssignmentGradeStats(ctx context.Context, assignmentID uint) ([]AssignmentGradeStats, error) {
	return r.gradeStats(ctx, "a.id = ?", assignmentID)
}

func (r *analyticsRepository) ProjectGradeStats(ctx context.Context, projectID uint) ([]AssignmentGradeStats, error) {
	return r.gradeStats(ctx, "a.project_id = ?", projectID)
}

func (r *analyticsRepository) gradeStats(ctx context.Context, where string, id uint) ([]AssignmentGradeStats, error) {
	rows := make([]AssignmentGradeStats, 0)
	if err := r.db.WithContext(ctx).Raw(fmt.Sprintf(gradeStatsQuery, where), id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []AssignmentGradeStats{}
	}
	return rows, nil
}

func (r *analyticsRepository) MissingSubmissions(ctx context.Context, assignmentID uint) ([]MissingSubmission, error) {
	rows := make([]MissingSubmission, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT st.id AS student_id, u.id AS user_id, u.name AS name, u.email AS email
FROM students st
JOIN users u ON u.id = st.user_id
WHERE u.role = ?
  AND NOT EXISTS (
    SELECT 1 FROM submissions s WHERE s.student_id = st.id AND s.assignment_id = ?
  )
ORDER BY u.name ASC, st.id ASC`, models.RoleStudent, assignmentID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []MissingSubmission{}
	}
	return rows, nil
}

// Leaderboard ranks students system-wide. Students without grades average 0 and
// follow graded students with the same average.
func (r *analyticsRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows := make([]LeaderboardEntry, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT st.id AS student_id,
       u.name AS name,
       CAST(COALESCE(AVG(s.grade), 0) AS FLOAT) AS average_grade,
       COUNT(s.id) AS submission_count
FROM students st
JOIN users u ON u.id = st.user_id
LEFT JOIN submissions s ON s.student_id = st.id
WHERE u.role = ?
GROUP BY st.id, u.name
ORDER BY CAST(COALESCE(AVG(s.grade), 0) AS FLOAT) DESC,
         CASE WHEN COUNT(s.grade) = 0 THEN 1 ELSE 0 END ASC,
         u.name ASC,
         st.id ASC
LIMIT ?`, models.RoleStudent, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []LeaderboardEntry{}
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// SearchSubmissions returns the professor's submissions matching the filter. Lateness
// is derived per row from the stored timestamps, and finalGrade/percentageScore use
// the same post-penalty formula as grading.
func (r *analyticsRepository) SearchSubmissions(ctx context.Context, filter SubmissionSearchFilter) ([]SubmissionSearchRow, error) {
	filter = filter.Normalize()

	query := r.db.WithContext(ctx).
		Table("submissions AS s").
		Select(`s.id AS submission_id, s.submitted_at, s.grade, s.raw_grade, s.penalty, s.remarks,
a.id AS assignment_id, a.name AS assignment_name, a.due_date, a.max_points,
st.id AS student_id, u.id AS user_id, u.name AS student_name, u.email AS student_email,
p.id AS project_id, p.name AS project_name`).
		Joins("JOIN assignments a ON a.id = s.assignment_id").
		Joins("JOIN students st ON st.id = s.student_id").
		Joins("JOIN users u ON u.id = st.user_id").
		Joins("JOIN projects p ON p.id = a.project_id").
		Where("p.professor_id = ?", filter.ProfessorID)

	if filter.AssignmentID != nil {
		query = query.Where("a.id = ?", *filter.AssignmentID)
	}
	if filter.ProjectID != nil {
		query = query.Where("p.id = ?", *filter.ProjectID)
	}
	if filter.MinGrade != nil {
		query = query.Where("s.grade >= ?", *filter.MinGrade)
	}
	if filter.MaxGrade != nil {
		query = query.Where("s.grade <= ?", *filter.MaxGrade)
	}
	if filter.IsGraded != nil {
		if *filter.IsGraded {
			query = query.Where("s.grade IS NOT NULL")
		} else {
			query = query.Where("s.grade IS NULL")
		}
	}

	query = query.Order(fmt.Sprintf("%s %s", searchSortColumns[filter.SortBy], strings.ToUpper(filter.SortOrder))).
		Order("s.id ASC")

	var scanned []SubmissionSearchRow
	if err := query.Scan(&scanned).Error; err != nil {
		return nil, err
	}

	rows := make([]SubmissionSearchRow, 0, len(scanned))
	for _, row := range scanned {
		row.IsLate = grading.IsLate(row.SubmittedAt, row.DueDate)
		if filter.IsLate != nil && *filter.IsLate != row.IsLate {
			continue
		}

		if final, ok := finalGradeOf(row); ok {
			percentage := grading.PercentageScore(final, row.MaxPoints)
			row.FinalGrade = &final
			row.PercentageScore = &percentage
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func finalGradeOf(row SubmissionSearchRow) (int, bool) {
	if row.RawGrade != nil {
		return grading.FinalGrade(*row.RawGrade, row.Penalty), true
	}
	if row.Grade != nil {
		return *row.Grade, true
	}
	return 0, false
}

func (r *analyticsRepository) ProjectSubmissionCounts(ctx context.Context, professorID uint) ([]ProjectSubmissionCount, error) {
	rows := make([]ProjectSubmissionCount, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT p.id AS project_id, p.name AS project_name, COUNT(s.id) AS submission_count
FROM projects p
LEFT JOIN assignments a ON a.project_id = p.id
LEFT JOIN submissions s ON s.assignment_id = a.id
WHERE p.professor_id = ?
GROUP BY p.id, p.name
ORDER BY p.name ASC, p.id ASC`, professorID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ProjectSubmissionCount{}
	}
	return rows, nil
}
