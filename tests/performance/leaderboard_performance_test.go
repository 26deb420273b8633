package performance_test

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/handler"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/internal/service"
	"github.com/noah-isme/projeval-api/internal/testutil"
)

func setupLeaderboardPerformanceApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testutil.NewDB(t)
	professor := testutil.CreateProfessor(t, db, "Prof", "prof@example.com")
	project := testutil.CreateProject(t, db, professor.Professor.ID, "Capstone")

	now := time.Now().UTC()
	assignments := make([]uint, 0, 5)
	for i := 0; i < 5; i++ {
		assignment := testutil.CreateAssignment(t, db, project.ID, fmt.Sprintf("Milestone %d", i+1), now.Add(time.Duration(i)*24*time.Hour), 100)
		assignments = append(assignments, assignment.ID)
	}

	for i := 0; i < 40; i++ {
		student := testutil.CreateStudent(t, db, fmt.Sprintf("Student %02d", i), fmt.Sprintf("student%02d@example.com", i))
		for j, assignmentID := range assignments {
			testutil.CreateSubmission(t, db, student.Student.ID, assignmentID, now, testutil.IntPtr(50+(i+j)%50))
		}
	}

	logger := zerolog.Nop()
	users := repository.NewUserRepository(db)
	analytics := service.NewAnalyticsService(
		repository.NewAnalyticsRepository(db),
		repository.NewProjectRepository(db),
		repository.NewAssignmentRepository(db),
		service.NewIdentityService(users, logger),
		nil, 0, logger,
	)

	app := fiber.New()
	handler.NewAnalyticsHandler(analytics, logger).RegisterLeaderboard(app.Group("/api/v1/leaderboard", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, professor.ID)
		c.Locals(middleware.LocalUserEmail, professor.Email)
		c.Locals(middleware.LocalUserRole, "professor")
		return c.Next()
	}))
	return app
}

func TestLeaderboardP95LatencyBelow250ms(t *testing.T) {
	app := setupLeaderboardPerformanceApp(t)

	runs := 40
	durations := make([]time.Duration, 0, runs)
	for i := 0; i < runs; i++ {
		start := time.Now()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := percentile(durations, 0.95)
	require.LessOrEqual(t, p95, 250*time.Millisecond, "leaderboard P95 %s", p95)
}

func percentile(values []time.Duration, pct float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	index := int(math.Ceil(pct*float64(len(values)))) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}
