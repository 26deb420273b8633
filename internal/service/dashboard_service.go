package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
)

const dashboardListSize = 5

// DashboardService builds the role-specific overview shown after login.
type DashboardService interface {
	Get(ctx context.Context, principal Principal) (dto.DashboardResponse, error)
}

type dashboardService struct {
	projects    repository.ProjectRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	badges      repository.BadgeRepository
	users       repository.UserRepository
	identity    IdentityService
	cache       *Cache
	ttl         time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// DashboardDependencies groups the repositories the dashboard reads from.
type DashboardDependencies struct {
	Projects    repository.ProjectRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
	Badges      repository.BadgeRepository
	Users       repository.UserRepository
}

// NewDashboardService constructs the dashboard service. A nil cache disables caching.
func NewDashboardService(deps DashboardDependencies, identity IdentityService, cache *Cache, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		projects:    deps.Projects,
		assignments: deps.Assignments,
		submissions: deps.Submissions,
		badges:      deps.Badges,
		users:       deps.Users,
		identity:    identity,
		cache:       cache,
		ttl:         ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, principal Principal) (dto.DashboardResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	key := dashboardCacheKey(user.ID)
	var cached dto.DashboardResponse
	if s.cache.getJSON(ctx, "dashboard", key, &cached) {
		return cached, nil
	}

	var response dto.DashboardResponse
	switch {
	case isProfessor(user):
		response, err = s.professorDashboard(ctx, user)
	case isStudent(user):
		response, err = s.studentDashboard(ctx, user)
	default:
		return dto.DashboardResponse{}, forbidden("unsupported role")
	}
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	s.cache.setJSON(ctx, key, response, s.ttl)
	return response, nil
}

func (s *dashboardService) professorDashboard(ctx context.Context, user models.User) (dto.DashboardResponse, error) {
	professorID := user.Professor.ID
	graded, pending := true, false

	projectsCount, err := s.projects.Count(ctx, repository.ProjectFilter{ProfessorID: &professorID})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	studentsCount, err := s.users.CountStudents(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	pendingCount, err := s.submissions.Count(ctx, repository.SubmissionFilter{ProfessorID: &professorID, Graded: &pending})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	gradedCount, err := s.submissions.Count(ctx, repository.SubmissionFilter{ProfessorID: &professorID, Graded: &graded})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	recent, err := s.submissions.List(ctx, repository.SubmissionFilter{ProfessorID: &professorID, Limit: dashboardListSize})
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	return dto.DashboardResponse{
		Role: string(models.RoleProfessor),
		ProfessorStats: &dto.ProfessorDashboardStats{
			ProjectsCount:             projectsCount,
			StudentsCount:             studentsCount,
			PendingEvaluationsCount:   pendingCount,
			CompletedAssignmentsCount: gradedCount,
		},
		RecentSubmissions: dto.NewSubmissionResponses(recent),
		GeneratedAt:       s.now().UTC(),
	}, nil
}

func (s *dashboardService) studentDashboard(ctx context.Context, user models.User) (dto.DashboardResponse, error) {
	studentID := user.Student.ID
	now := s.now().UTC()

	projectsCount, err := s.projects.Count(ctx, repository.ProjectFilter{})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	pendingCount, err := s.assignments.CountOpenWithoutSubmission(ctx, studentID, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	submittedCount, err := s.submissions.Count(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	badgesCount, err := s.badges.CountByStudent(ctx, studentID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	open, err := s.assignments.ListOpenWithoutSubmission(ctx, studentID, now, dashboardListSize)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	recent, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID, Limit: dashboardListSize})
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	upcoming := make([]dto.UpcomingAssignment, 0, len(open))
	for _, assignment := range open {
		item := dto.UpcomingAssignment{
			ID:       assignment.ID,
			Name:     assignment.Name,
			DueDate:  assignment.DueDate,
			DaysLeft: grading.DaysUntilDue(now, assignment.DueDate),
		}
		if assignment.Project != nil {
			item.ProjectName = assignment.Project.Name
		}
		upcoming = append(upcoming, item)
	}

	return dto.DashboardResponse{
		Role: string(models.RoleStudent),
		StudentStats: &dto.StudentDashboardStats{
			EnrolledProjectsCount:     projectsCount,
			PendingAssignmentsCount:   pendingCount,
			SubmittedAssignmentsCount: submittedCount,
			BadgesCount:               badgesCount,
		},
		UpcomingAssignments: upcoming,
		RecentSubmissions:   dto.NewSubmissionResponses(recent),
		GeneratedAt:         now,
	}, nil
}
