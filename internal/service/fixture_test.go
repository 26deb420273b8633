package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/internal/testutil"
	"github.com/noah-isme/projeval-api/pkg/ai"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event dto.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) ofType(eventType string) []dto.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]dto.Event, 0)
	for _, event := range r.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type stubGrader struct {
	result ai.GradingResult
	err    error
	calls  []ai.GradingInput
}

func (s *stubGrader) Grade(ctx context.Context, input ai.GradingInput) (ai.GradingResult, error) {
	s.calls = append(s.calls, input)
	return s.result, s.err
}

// serviceFixture wires every service against one SQLite database and a miniredis cache.
type serviceFixture struct {
	db        *gorm.DB
	redis     *miniredis.Miniredis
	cache     *Cache
	events    *recordingPublisher
	grader    *stubGrader
	validator *validator.Validate
	logger    zerolog.Logger

	users       repository.UserRepository
	projects    repository.ProjectRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	badgeRepo   repository.BadgeRepository
	activityLog repository.ActivityLogRepository

	identity IdentityService
	activity ActivityService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testutil.Logger()
	validate := validator.New(validator.WithRequiredStructEnabled())
	users := repository.NewUserRepository(db)
	identity := NewIdentityService(users, logger)
	activityLog := repository.NewActivityLogRepository(db)

	return &serviceFixture{
		db:          db,
		redis:       mr,
		cache:       NewCache(client, logger),
		events:      &recordingPublisher{},
		grader:      &stubGrader{},
		validator:   validate,
		logger:      logger,
		users:       users,
		projects:    repository.NewProjectRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		badgeRepo:   repository.NewBadgeRepository(db),
		activityLog: activityLog,
		identity:    identity,
		activity:    NewActivityService(activityLog, identity, validate, logger),
	}
}

func (f *serviceFixture) submissionService(now time.Time) *submissionService {
	svc := NewSubmissionService(f.submissions, f.assignments, f.identity, f.events, f.cache, f.validator, f.logger).(*submissionService)
	svc.now = func() time.Time { return now }
	return svc
}

func (f *serviceFixture) gradingService(grader ai.Grader) *gradingService {
	return NewGradingService(f.submissions, f.identity, grader, f.activity, f.events, f.cache, f.validator, f.logger).(*gradingService)
}

func (f *serviceFixture) badgeService() *badgeService {
	return NewBadgeService(f.badgeRepo, f.users, f.identity, f.activity, f.events, f.cache, f.validator, f.logger).(*badgeService)
}

func (f *serviceFixture) projectService() ProjectService {
	return NewProjectService(f.projects, f.assignments, f.identity, f.validator, f.logger)
}

func (f *serviceFixture) assignmentService(now time.Time) *assignmentService {
	svc := NewAssignmentService(f.assignments, f.projects, f.submissions, f.identity, f.validator, f.logger).(*assignmentService)
	svc.now = func() time.Time { return now }
	return svc
}

func (f *serviceFixture) analyticsService() AnalyticsService {
	return NewAnalyticsService(repository.NewAnalyticsRepository(f.db), f.projects, f.assignments, f.identity, f.cache, time.Minute, f.logger)
}

func (f *serviceFixture) dashboardService(now time.Time) *dashboardService {
	svc := NewDashboardService(DashboardDependencies{
		Projects:    f.projects,
		Assignments: f.assignments,
		Submissions: f.submissions,
		Badges:      f.badgeRepo,
		Users:       f.users,
	}, f.identity, f.cache, time.Minute, f.logger).(*dashboardService)
	svc.now = func() time.Time { return now }
	return svc
}

func principalOf(user models.User) Principal {
	return Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func floatPtr(v float64) *float64 {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}
