package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/handler"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/service"
)

type submissionTestApp struct {
	app         *fiber.App
	submissions *stubSubmissionService
	grading     *stubGradingService
	analytics   *stubAnalyticsService
}

func setupSubmissionApp(t *testing.T, identity fiber.Handler, aiLimiter fiber.Handler) submissionTestApp {
	t.Helper()

	deps := submissionTestApp{
		app:         fiber.New(),
		submissions: &stubSubmissionService{response: dto.SubmissionResponse{ID: 10, AssignmentID: 3, Penalty: 15, Status: "submitted"}},
		grading:     &stubGradingService{response: dto.SubmissionResponse{ID: 10, Status: "graded"}},
		analytics:   &stubAnalyticsService{},
	}

	group := deps.app.Group("/api/v1/submissions")
	if identity != nil {
		group.Use(identity)
	}
	handler.NewSubmissionHandler(deps.submissions, deps.grading, deps.analytics, aiLimiter, zerolog.Nop()).Register(group)
	return deps
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSubmissionHandlerCreateAsStudent(t *testing.T) {
	deps := setupSubmissionApp(t, asStudent(), nil)

	resp, err := deps.app.Test(jsonRequest(http.MethodPost, "/api/v1/submissions", `{"assignmentId":3,"content":"my answer"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "submission created", payload.Message)
	require.Equal(t, uint(3), deps.submissions.created.AssignmentID)
	require.Equal(t, "my answer", deps.submissions.created.Content)
	require.Contains(t, string(payload.Data), `"penalty":15`)
}

func TestSubmissionHandlerCreateRejectsProfessor(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)

	resp, err := deps.app.Test(jsonRequest(http.MethodPost, "/api/v1/submissions", `{"assignmentId":3,"content":"x"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerRequiresIdentity(t *testing.T) {
	deps := setupSubmissionApp(t, nil, nil)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSubmissionHandlerMapsServiceErrors(t *testing.T) {
	validationErr := validator.New().Struct(dto.SubmissionCreateRequest{AssignmentID: 3})
	require.Error(t, validationErr)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", service.NotFoundError{Message: "assignment not found"}, fiber.StatusNotFound, "assignment not found"},
		{"duplicate", service.InputError{Message: "you have already submitted this assignment"}, fiber.StatusBadRequest, "you have already submitted this assignment"},
		{"validation", validationErr, fiber.StatusBadRequest, "validation failed"},
		{"unexpected", fmt.Errorf("connection reset"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupSubmissionApp(t, asStudent(), nil)
			deps.submissions.err = tc.err

			resp, err := deps.app.Test(jsonRequest(http.MethodPost, "/api/v1/submissions", `{"assignmentId":3,"content":""}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			payload := decodeEnvelope(t, resp)
			require.False(t, payload.Success)
			require.Equal(t, tc.message, payload.Message)
			require.Equal(t, tc.message, payload.Error)
			if tc.name == "validation" {
				require.Len(t, payload.Details, 1)
				require.Equal(t, "Content", payload.Details[0].Field)
				require.Equal(t, "required", payload.Details[0].Rule)
			}
		})
	}
}

func TestSubmissionHandlerListForwardsFilters(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions?assignmentId=3&studentId=8", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, deps.submissions.listQuery.AssignmentID)
	require.Equal(t, uint(3), *deps.submissions.listQuery.AssignmentID)
	require.Equal(t, uint(8), *deps.submissions.listQuery.StudentID)

	resp, err = deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions?assignmentId=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerGetRejectsInvalidID(t *testing.T) {
	deps := setupSubmissionApp(t, asStudent(), nil)

	for _, id := range []string{"abc", "0"} {
		resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+id, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, id)
	}
}

func TestSubmissionHandlerGradeManually(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)

	resp, err := deps.app.Test(jsonRequest(http.MethodPut, "/api/v1/submissions/10", `{"grade":90,"remarks":"solid"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, deps.grading.manual.Grade)
	require.Equal(t, 90.0, *deps.grading.manual.Grade)
	require.Equal(t, "solid", deps.grading.manual.Remarks)
	require.Equal(t, uint(1), deps.grading.principal.UserID)
}

func TestSubmissionHandlerGradeRejectsStudent(t *testing.T) {
	deps := setupSubmissionApp(t, asStudent(), nil)

	resp, err := deps.app.Test(jsonRequest(http.MethodPut, "/api/v1/submissions/10", `{"grade":90}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerGradeWithAIFailure(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)
	deps.grading.err = fmt.Errorf("%w: upstream timeout", service.ErrGradingUnavailable)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/submissions/10/grade-ai", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.Equal(t, "ai grading failed", payload.Message)
}

func TestSubmissionHandlerGradeWithAIRateLimited(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), middleware.RateLimit("ai-grading", 1, time.Minute))

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/submissions/10/grade-ai", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = deps.app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/submissions/10/grade-ai", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, 1, deps.grading.aiCalls)
}

func TestSubmissionHandlerFilterParsesQuery(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/submissions/filter?projectId=2&minGrade=70&maxGrade=95&isLate=true&sortBy=grade&sortOrder=asc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	query := deps.analytics.search
	require.Nil(t, query.AssignmentID)
	require.Equal(t, uint(2), *query.ProjectID)
	require.Equal(t, 70, *query.MinGrade)
	require.Equal(t, 95, *query.MaxGrade)
	require.True(t, *query.IsLate)
	require.Nil(t, query.IsGraded)
	require.Equal(t, "grade", query.SortBy)
	require.Equal(t, "asc", query.SortOrder)

	resp, err = deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/filter?isGraded=maybe", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerFilterIsProfessorOnly(t *testing.T) {
	deps := setupSubmissionApp(t, asStudent(), nil)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/filter", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerCounts(t *testing.T) {
	deps := setupSubmissionApp(t, asProfessor(), nil)

	resp, err := deps.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/counts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.JSONEq(t, `[{"projectId":1,"projectName":"Capstone","count":3}]`, string(payload.Data))
}
