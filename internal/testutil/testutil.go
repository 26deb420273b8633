// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/projeval-api/internal/models"
)

// NewDB opens an isolated in-memory SQLite database with every model migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// Logger returns a logger that discards output.
func Logger() zerolog.Logger {
	return zerolog.Nop()
}

// CreateProfessor inserts a professor account and its profile.
func CreateProfessor(t testing.TB, db *gorm.DB, name, email string) models.User {
	t.Helper()
	return createUser(t, db, name, email, models.RoleProfessor)
}

// CreateStudent inserts a student account and its profile.
func CreateStudent(t testing.TB, db *gorm.DB, name, email string) models.User {
	t.Helper()
	return createUser(t, db, name, email, models.RoleStudent)
}

func createUser(t testing.TB, db *gorm.DB, name, email string, role models.Role) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Omit("Professor", "Student").Create(&user).Error)

	switch role {
	case models.RoleProfessor:
		profile := models.Professor{UserID: user.ID}
		require.NoError(t, db.Create(&profile).Error)
		user.Professor = &profile
	case models.RoleStudent:
		profile := models.Student{UserID: user.ID}
		require.NoError(t, db.Create(&profile).Error)
		user.Student = &profile
	}
	return user
}

// CreateProject inserts a project owned by the professor.
func CreateProject(t testing.TB, db *gorm.DB, professorID uint, name string) models.Project {
	t.Helper()

	project := models.Project{Name: name, ProfessorID: professorID}
	require.NoError(t, db.Create(&project).Error)
	return project
}

// CreateAssignment inserts an assignment with the given due date and maximum.
func CreateAssignment(t testing.TB, db *gorm.DB, projectID uint, name string, due time.Time, maxPoints int) models.Assignment {
	t.Helper()

	assignment := models.Assignment{Name: name, ProjectID: projectID, DueDate: due.UTC(), MaxPoints: maxPoints}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

// CreateSubmission inserts a submission, optionally graded.
func CreateSubmission(t testing.TB, db *gorm.DB, studentID, assignmentID uint, submittedAt time.Time, grade *int) models.Submission {
	t.Helper()

	submission := models.Submission{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Content:      "answer",
		SubmittedAt:  submittedAt.UTC(),
		Grade:        grade,
	}
	if grade != nil {
		raw := float64(*grade)
		submission.RawGrade = &raw
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
