package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
)

// LeaderboardSize is the number of students on the leaderboard.
const LeaderboardSize = 5

// AnalyticsService exposes the read-only grade aggregations.
type AnalyticsService interface {
	AverageGrades(ctx context.Context, principal Principal, assignmentID, projectID *uint) ([]repository.AssignmentGradeStats, error)
	MissingSubmissions(ctx context.Context, principal Principal, assignmentID *uint) ([]repository.MissingSubmission, error)
	Leaderboard(ctx context.Context, principal Principal) ([]repository.LeaderboardEntry, error)
	SearchSubmissions(ctx context.Context, principal Principal, query dto.SubmissionSearchQuery) ([]repository.SubmissionSearchRow, error)
	SubmissionCounts(ctx context.Context, principal Principal) ([]repository.ProjectSubmissionCount, error)
}

type analyticsService struct {
	analytics      repository.AnalyticsRepository
	projects       repository.ProjectRepository
	assignments    repository.AssignmentRepository
	identity       IdentityService
	cache          *Cache
	leaderboardTTL time.Duration
	logger         zerolog.Logger
}

// NewAnalyticsService constructs the analytics service. A nil cache disables leaderboard caching.
func NewAnalyticsService(analytics repository.AnalyticsRepository, projects repository.ProjectRepository, assignments repository.AssignmentRepository, identity IdentityService, cache *Cache, leaderboardTTL time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		analytics:      analytics,
		projects:       projects,
		assignments:    assignments,
		identity:       identity,
		cache:          cache,
		leaderboardTTL: leaderboardTTL,
		logger:         logger.With().Str("component", "analytics_service").Logger(),
	}
}

// AverageGrades aggregates one assignment, or every assignment of a project when
// only projectId is given.
func (s *analyticsService) AverageGrades(ctx context.Context, principal Principal, assignmentID, projectID *uint) ([]repository.AssignmentGradeStats, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.average_grades")
	defer span.End()

	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return nil, err
	}

	var stats []repository.AssignmentGradeStats
	switch {
	case assignmentID != nil:
		span.SetAttributes(attribute.Int64("analytics.assignment_id", int64(*assignmentID)))
		if err := s.ensureAssignmentOwned(ctx, user, *assignmentID); err != nil {
			return nil, err
		}
		stats, err = s.analytics.AssignmentGradeStats(ctx, *assignmentID)
	case projectID != nil:
		span.SetAttributes(attribute.Int64("analytics.project_id", int64(*projectID)))
		if err := s.ensureProjectOwned(ctx, user, *projectID); err != nil {
			return nil, err
		}
		stats, err = s.analytics.ProjectGradeStats(ctx, *projectID)
	default:
		return nil, badInput("assignmentId or projectId is required")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return nil, err
	}

	return stats, nil
}

func (s *analyticsService) MissingSubmissions(ctx context.Context, principal Principal, assignmentID *uint) ([]repository.MissingSubmission, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.missing_submissions")
	defer span.End()

	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return nil, err
	}
	if assignmentID == nil {
		return nil, badInput("assignmentId is required")
	}
	if err := s.ensureAssignmentOwned(ctx, user, *assignmentID); err != nil {
		return nil, err
	}

	missing, err := s.analytics.MissingSubmissions(ctx, *assignmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("analytics.missing", len(missing)))
	return missing, nil
}

// Leaderboard returns the top students by average grade, served from Redis when cached.
func (s *analyticsService) Leaderboard(ctx context.Context, principal Principal) ([]repository.LeaderboardEntry, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.leaderboard")
	defer span.End()

	if _, err := s.identity.Resolve(ctx, principal); err != nil {
		return nil, err
	}

	var cached []repository.LeaderboardEntry
	if s.cache.getJSON(ctx, "leaderboard", leaderboardCacheKey, &cached) {
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	entries, err := s.analytics.Leaderboard(ctx, LeaderboardSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return nil, err
	}

	s.cache.setJSON(ctx, leaderboardCacheKey, entries, s.leaderboardTTL)
	return entries, nil
}

// SearchSubmissions filters the calling professor's submissions.
func (s *analyticsService) SearchSubmissions(ctx context.Context, principal Principal, query dto.SubmissionSearchQuery) ([]repository.SubmissionSearchRow, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.search_submissions")
	defer span.End()

	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return nil, err
	}

	if query.MinGrade != nil && query.MaxGrade != nil && *query.MinGrade > *query.MaxGrade {
		return nil, badInput("minGrade must not exceed maxGrade")
	}

	filter := repository.SubmissionSearchFilter{
		ProfessorID:  user.Professor.ID,
		AssignmentID: query.AssignmentID,
		ProjectID:    query.ProjectID,
		MinGrade:     query.MinGrade,
		MaxGrade:     query.MaxGrade,
		IsGraded:     query.IsGraded,
		IsLate:       query.IsLate,
		SortBy:       query.SortBy,
		SortOrder:    query.SortOrder,
	}.Normalize()
	span.SetAttributes(
		attribute.String("analytics.sort_by", filter.SortBy),
		attribute.String("analytics.sort_order", filter.SortOrder),
	)

	rows, err := s.analytics.SearchSubmissions(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search_failed")
		return nil, err
	}
	return rows, nil
}

func (s *analyticsService) SubmissionCounts(ctx context.Context, principal Principal) ([]repository.ProjectSubmissionCount, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.analytics.ProjectSubmissionCounts(ctx, user.Professor.ID)
}

func (s *analyticsService) ensureAssignmentOwned(ctx context.Context, user models.User, assignmentID uint) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(assignmentNotFound)
		}
		return err
	}
	if !ownsProject(user, assignment.Project) {
		return notFound(assignmentNotFound)
	}
	return nil
}

func (s *analyticsService) ensureProjectOwned(ctx context.Context, user models.User, projectID uint) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(projectNotFound)
		}
		return err
	}
	if !ownsProject(user, &project) {
		return notFound(projectNotFound)
	}
	return nil
}
