package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Details []struct {
		Field string `json:"field"`
		Rule  string `json:"rule"`
	} `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload envelope
	require.NoError(t, json.Unmarshal(body, &payload), string(body))
	return payload
}

// withIdentity emulates the bearer middleware for handler tests.
func withIdentity(userID uint, email, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, userID)
		c.Locals(middleware.LocalUserEmail, email)
		c.Locals(middleware.LocalUserRole, role)
		return c.Next()
	}
}

func asProfessor() fiber.Handler {
	return withIdentity(1, "prof@example.com", "professor")
}

func asStudent() fiber.Handler {
	return withIdentity(2, "student@example.com", "student")
}

type stubSubmissionService struct {
	listQuery dto.SubmissionListQuery
	created   dto.SubmissionCreateRequest
	response  dto.SubmissionResponse
	err       error
}

func (s *stubSubmissionService) List(_ context.Context, _ service.Principal, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, error) {
	s.listQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return []dto.SubmissionResponse{s.response}, nil
}

func (s *stubSubmissionService) Get(_ context.Context, _ service.Principal, _ uint) (dto.SubmissionResponse, error) {
	return s.response, s.err
}

func (s *stubSubmissionService) Create(_ context.Context, _ service.Principal, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	s.created = payload
	return s.response, s.err
}

type stubGradingService struct {
	manual    dto.GradeSubmissionRequest
	principal service.Principal
	aiCalls   int
	response  dto.SubmissionResponse
	err       error
}

func (s *stubGradingService) GradeManually(_ context.Context, principal service.Principal, _ uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	s.principal = principal
	s.manual = payload
	return s.response, s.err
}

func (s *stubGradingService) GradeWithAI(_ context.Context, principal service.Principal, _ uint) (dto.SubmissionResponse, error) {
	s.principal = principal
	s.aiCalls++
	return s.response, s.err
}

type stubAnalyticsService struct {
	search       dto.SubmissionSearchQuery
	assignmentID *uint
	projectID    *uint
	averageCalls int
	missingCalls int
	leaderboard  []repository.LeaderboardEntry
	err          error
}

func (s *stubAnalyticsService) AverageGrades(_ context.Context, _ service.Principal, assignmentID, projectID *uint) ([]repository.AssignmentGradeStats, error) {
	s.averageCalls++
	s.assignmentID = assignmentID
	s.projectID = projectID
	return []repository.AssignmentGradeStats{}, s.err
}

func (s *stubAnalyticsService) MissingSubmissions(_ context.Context, _ service.Principal, assignmentID *uint) ([]repository.MissingSubmission, error) {
	s.missingCalls++
	s.assignmentID = assignmentID
	return []repository.MissingSubmission{}, s.err
}

func (s *stubAnalyticsService) Leaderboard(context.Context, service.Principal) ([]repository.LeaderboardEntry, error) {
	return s.leaderboard, s.err
}

func (s *stubAnalyticsService) SearchSubmissions(_ context.Context, _ service.Principal, query dto.SubmissionSearchQuery) ([]repository.SubmissionSearchRow, error) {
	s.search = query
	return []repository.SubmissionSearchRow{}, s.err
}

func (s *stubAnalyticsService) SubmissionCounts(context.Context, service.Principal) ([]repository.ProjectSubmissionCount, error) {
	return []repository.ProjectSubmissionCount{{ProjectID: 1, ProjectName: "Capstone", SubmissionCount: 3}}, s.err
}
