package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/testutil"
)

func TestAssignmentServiceCreateDefaultsMaxPoints(t *testing.T) {
	f := newServiceFixture(t)
	owner := testutil.CreateProfessor(t, f.db, "Owner", "owner@uni.edu")
	other := testutil.CreateProfessor(t, f.db, "Other", "other@uni.edu")
	project := testutil.CreateProject(t, f.db, owner.Professor.ID, "Compilers")
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := f.assignmentService(now)
	ctx := context.Background()

	payload := dto.AssignmentCreateRequest{
		ProjectID: project.ID,
		Name:      "Parser",
		Rubrics:   "Correctness",
		DueDate:   now.Add(72 * time.Hour),
	}

	created, err := svc.Create(ctx, principalOf(owner), payload)
	require.NoError(t, err)
	require.Equal(t, models.DefaultMaxPoints, created.MaxPoints)
	require.Equal(t, "Compilers", created.ProjectName)
	require.Equal(t, int64(0), *created.SubmissionCount)

	_, err = svc.Create(ctx, principalOf(other), payload)
	require.ErrorIs(t, err, ErrNotFound)

	payload.MaxPoints = -5
	_, err = svc.Create(ctx, principalOf(owner), payload)
	require.Error(t, err)

	_, err = svc.Update(ctx, principalOf(other), created.ID, dto.AssignmentUpdateRequest{Name: "X", DueDate: now})
	require.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Update(ctx, principalOf(owner), created.ID, dto.AssignmentUpdateRequest{Name: "Parser v2", DueDate: now.Add(time.Hour), MaxPoints: 50})
	require.NoError(t, err)
	require.Equal(t, "Parser v2", updated.Name)
	require.Equal(t, 50, updated.MaxPoints)

	require.ErrorIs(t, svc.Delete(ctx, principalOf(other), created.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, principalOf(owner), created.ID))
	_, err = svc.Get(ctx, principalOf(owner), created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssignmentServiceStudentListCarriesStatus(t *testing.T) {
	f := newServiceFixture(t)
	owner := testutil.CreateProfessor(t, f.db, "Owner", "owner@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	project := testutil.CreateProject(t, f.db, owner.Professor.ID, "Compilers")
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	graded := testutil.CreateAssignment(t, f.db, project.ID, "Lexer", now.Add(-48*time.Hour), 100)
	submitted := testutil.CreateAssignment(t, f.db, project.ID, "Parser", now.Add(12*time.Hour), 100)
	pending := testutil.CreateAssignment(t, f.db, project.ID, "Codegen", now.Add(72*time.Hour), 100)
	testutil.CreateSubmission(t, f.db, student.Student.ID, graded.ID, now.Add(-72*time.Hour), testutil.IntPtr(81))
	testutil.CreateSubmission(t, f.db, student.Student.ID, submitted.ID, now, nil)

	list, err := f.assignmentService(now).List(context.Background(), principalOf(student), nil)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.Equal(t, graded.ID, list[0].ID)
	require.Equal(t, models.SubmissionStatusGraded, list[0].Status)
	require.Equal(t, 81, *list[0].Grade)
	require.Equal(t, -2, *list[0].DaysUntilDue)

	require.Equal(t, submitted.ID, list[1].ID)
	require.Equal(t, models.SubmissionStatusSubmitted, list[1].Status)
	require.Equal(t, 1, *list[1].DaysUntilDue)

	require.Equal(t, pending.ID, list[2].ID)
	require.Equal(t, models.SubmissionStatusPending, list[2].Status)
	require.False(t, *list[2].Submitted)
	require.Nil(t, list[2].SubmissionCount)
}

func TestAssignmentServiceProfessorListIsScoped(t *testing.T) {
	f := newServiceFixture(t)
	owner := testutil.CreateProfessor(t, f.db, "Owner", "owner@uni.edu")
	other := testutil.CreateProfessor(t, f.db, "Other", "other@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	own := testutil.CreateProject(t, f.db, owner.Professor.ID, "Mine")
	theirs := testutil.CreateProject(t, f.db, other.Professor.ID, "Theirs")
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mine := testutil.CreateAssignment(t, f.db, own.ID, "A1", now, 100)
	testutil.CreateAssignment(t, f.db, theirs.ID, "B1", now, 100)
	testutil.CreateSubmission(t, f.db, student.Student.ID, mine.ID, now, nil)
	svc := f.assignmentService(now)
	ctx := context.Background()

	list, err := svc.List(ctx, principalOf(owner), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), *list[0].SubmissionCount)

	_, err = svc.List(ctx, principalOf(owner), &theirs.ID)
	require.ErrorIs(t, err, ErrNotFound)

	all, err := svc.List(ctx, principalOf(student), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
