package dto

import "time"

// ProfessorDashboardStats are the professor's headline counts.
type ProfessorDashboardStats struct {
	ProjectsCount             int64 `json:"projectsCount"`
	StudentsCount             int64 `json:"studentsCount"`
	PendingEvaluationsCount   int64 `json:"pendingEvaluationsCount"`
	CompletedAssignmentsCount int64 `json:"completedAssignmentsCount"`
}

// StudentDashboardStats are the student's headline counts.
type StudentDashboardStats struct {
	EnrolledProjectsCount     int64 `json:"enrolledProjectsCount"`
	PendingAssignmentsCount   int64 `json:"pendingAssignmentsCount"`
	SubmittedAssignmentsCount int64 `json:"submittedAssignmentsCount"`
	BadgesCount               int64 `json:"badgesCount"`
}

// UpcomingAssignment is an open assignment the student still has to submit.
type UpcomingAssignment struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	ProjectName string    `json:"projectName"`
	DueDate     time.Time `json:"dueDate"`
	DaysLeft    int       `json:"daysLeft"`
}

// DashboardResponse is the role-specific overview. Only the fields for the
// caller's role are populated.
type DashboardResponse struct {
	Role                string                   `json:"role"`
	ProfessorStats      *ProfessorDashboardStats `json:"professorStats,omitempty"`
	StudentStats        *StudentDashboardStats   `json:"studentStats,omitempty"`
	UpcomingAssignments []UpcomingAssignment     `json:"upcomingAssignments,omitempty"`
	RecentSubmissions   []SubmissionResponse     `json:"recentSubmissions"`
	GeneratedAt         time.Time                `json:"generatedAt"`
}
