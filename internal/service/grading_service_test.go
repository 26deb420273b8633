package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/internal/testutil"
	"github.com/noah-isme/projeval-api/pkg/ai"
)

type gradingScenario struct {
	f          *serviceFixture
	professor  models.User
	student    models.User
	assignment models.Assignment
	submission models.Submission
}

func newGradingScenario(t *testing.T, maxPoints int, penalty int) gradingScenario {
	t.Helper()

	f := newServiceFixture(t)
	professor := testutil.CreateProfessor(t, f.db, "Prof", "prof@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	project := testutil.CreateProject(t, f.db, professor.Professor.ID, "Compilers")
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	assignment := testutil.CreateAssignment(t, f.db, project.ID, "Parser", due, maxPoints)

	submission := models.Submission{
		StudentID:    student.Student.ID,
		AssignmentID: assignment.ID,
		Content:      "answer",
		Penalty:      penalty,
		SubmittedAt:  due,
	}
	require.NoError(t, f.db.Create(&submission).Error)

	return gradingScenario{f: f, professor: professor, student: student, assignment: assignment, submission: submission}
}

func TestGradingServiceManualAppliesStoredPenalty(t *testing.T) {
	s := newGradingScenario(t, 100, 15)
	svc := s.f.gradingService(nil)

	response, err := svc.GradeManually(context.Background(), principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{
		Grade:    floatPtr(90),
		Remarks:  "<b>Solid</b> work",
		Feedback: "Watch the edge cases",
	})
	require.NoError(t, err)
	require.NotNil(t, response.Grade)
	require.Equal(t, 77, *response.Grade)
	require.Equal(t, 90.0, *response.RawGrade)
	require.Equal(t, 15, response.Penalty)
	require.Equal(t, "Solid work", response.Remarks)
	require.Equal(t, models.SubmissionStatusGraded, response.Status)

	var stored models.Submission
	require.NoError(t, s.f.db.First(&stored, s.submission.ID).Error)
	require.Equal(t, 77, *stored.Grade)
	require.Equal(t, 15, stored.Penalty)
	require.Equal(t, "answer", stored.Content)

	graded := s.f.events.ofType(dto.EventSubmissionGraded)
	require.Len(t, graded, 1)
	require.Equal(t, s.student.ID, graded[0].UserID)

	entries, total, err := s.f.activityLog.List(context.Background(), repository.ActivityLogFilter{ActorID: &s.professor.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, models.ActivityActionGrade, entries[0].Action)
}

func TestGradingServiceRegradeOverwrites(t *testing.T) {
	s := newGradingScenario(t, 100, 0)
	svc := s.f.gradingService(nil)
	ctx := context.Background()

	_, err := svc.GradeManually(ctx, principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(60), Feedback: "first pass"})
	require.NoError(t, err)

	response, err := svc.GradeManually(ctx, principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(72.5)})
	require.NoError(t, err)
	require.Equal(t, 73, *response.Grade)
	require.Equal(t, "first pass", response.Feedback)
}

func TestGradingServicePerfectionistThreshold(t *testing.T) {
	below := newGradingScenario(t, 50, 0)
	response, err := below.f.gradingService(nil).GradeManually(context.Background(), principalOf(below.professor), below.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(49)})
	require.NoError(t, err)
	require.Empty(t, response.BadgesAwarded)

	exact := newGradingScenario(t, 50, 0)
	svc := exact.f.gradingService(nil)
	response, err = svc.GradeManually(context.Background(), principalOf(exact.professor), exact.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(50)})
	require.NoError(t, err)
	require.Equal(t, []string{models.BadgePerfectionist}, response.BadgesAwarded)

	response, err = svc.GradeManually(context.Background(), principalOf(exact.professor), exact.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(50)})
	require.NoError(t, err)
	require.Empty(t, response.BadgesAwarded)

	var badges int64
	require.NoError(t, exact.f.db.Model(&models.Badge{}).Where("name = ?", models.BadgePerfectionist).Count(&badges).Error)
	require.Equal(t, int64(1), badges)
}

func TestGradingServicePenaltyPreventsPerfectionist(t *testing.T) {
	s := newGradingScenario(t, 100, 5)
	response, err := s.f.gradingService(nil).GradeManually(context.Background(), principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(100)})
	require.NoError(t, err)
	require.Equal(t, 95, *response.Grade)
	require.Empty(t, response.BadgesAwarded)
}

func TestGradingServiceRejectsNonOwner(t *testing.T) {
	s := newGradingScenario(t, 100, 0)
	outsider := testutil.CreateProfessor(t, s.f.db, "Outsider", "out@uni.edu")
	svc := s.f.gradingService(s.f.grader)
	ctx := context.Background()

	_, err := svc.GradeManually(ctx, principalOf(outsider), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(80)})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GradeWithAI(ctx, principalOf(outsider), s.submission.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, s.f.grader.calls)

	_, err = svc.GradeManually(ctx, principalOf(s.student), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(80)})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GradeManually(ctx, principalOf(s.professor), 999, dto.GradeSubmissionRequest{Grade: floatPtr(80)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGradingServiceManualRequiresGrade(t *testing.T) {
	s := newGradingScenario(t, 100, 0)
	_, err := s.f.gradingService(nil).GradeManually(context.Background(), principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{})
	require.Error(t, err)

	_, err = s.f.gradingService(nil).GradeManually(context.Background(), principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(-1)})
	require.Error(t, err)

	_, err = s.f.gradingService(nil).GradeManually(context.Background(), principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(1e19)})
	require.Error(t, err)

	var stored models.Submission
	require.NoError(t, s.f.db.First(&stored, s.submission.ID).Error)
	require.Nil(t, stored.Grade)
}

func TestGradingServiceWithAI(t *testing.T) {
	s := newGradingScenario(t, 100, 15)
	s.f.grader.result = ai.GradingResult{Grade: 90, Feedback: "<p>Clear &amp; correct</p>", Format: ai.FormatJSON, Model: "gpt-test"}
	svc := s.f.gradingService(s.f.grader)

	response, err := svc.GradeWithAI(context.Background(), principalOf(s.professor), s.submission.ID)
	require.NoError(t, err)
	require.Equal(t, 77, *response.Grade)
	require.Equal(t, "Clear & correct", response.Feedback)

	require.Len(t, s.f.grader.calls, 1)
	require.Equal(t, "answer", s.f.grader.calls[0].Content)
	require.Equal(t, ai.DefaultRubric, s.f.grader.calls[0].Rubric)
	require.Equal(t, 100, s.f.grader.calls[0].MaxPoints)

	entries, _, err := s.f.activityLog.List(context.Background(), repository.ActivityLogFilter{ActorID: &s.professor.ID})
	require.NoError(t, err)
	require.Equal(t, models.ActivityActionGradeAI, entries[0].Action)
	require.Equal(t, "gpt-test", entries[0].Metadata["model"])
}

func TestGradingServiceAIFailureLeavesSubmissionUngraded(t *testing.T) {
	s := newGradingScenario(t, 100, 0)
	s.f.grader.err = errors.New("upstream timeout")

	_, err := s.f.gradingService(s.f.grader).GradeWithAI(context.Background(), principalOf(s.professor), s.submission.ID)
	require.ErrorIs(t, err, ErrGradingUnavailable)

	s.f.grader.err = ai.ErrUnparseableResponse
	_, err = s.f.gradingService(s.f.grader).GradeWithAI(context.Background(), principalOf(s.professor), s.submission.ID)
	require.ErrorIs(t, err, ErrGradingUnavailable)

	_, err = s.f.gradingService(nil).GradeWithAI(context.Background(), principalOf(s.professor), s.submission.ID)
	require.ErrorIs(t, err, ErrGradingUnavailable)

	var stored models.Submission
	require.NoError(t, s.f.db.First(&stored, s.submission.ID).Error)
	require.Nil(t, stored.Grade)
	require.Empty(t, s.f.events.ofType(dto.EventSubmissionGraded))
}

func TestGradingServiceInvalidatesLeaderboardCache(t *testing.T) {
	s := newGradingScenario(t, 100, 0)
	ctx := context.Background()

	board, err := s.f.analyticsService().Leaderboard(ctx, principalOf(s.student))
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Zero(t, board[0].AverageGrade)
	require.True(t, s.f.redis.Exists(leaderboardCacheKey))

	_, err = s.f.gradingService(nil).GradeManually(ctx, principalOf(s.professor), s.submission.ID, dto.GradeSubmissionRequest{Grade: floatPtr(88)})
	require.NoError(t, err)
	require.False(t, s.f.redis.Exists(leaderboardCacheKey))

	board, err = s.f.analyticsService().Leaderboard(ctx, principalOf(s.student))
	require.NoError(t, err)
	require.Equal(t, 88.0, board[0].AverageGrade)
}
