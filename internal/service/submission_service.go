package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/observability"
	"github.com/noah-isme/projeval-api/internal/repository"
)

const submissionNotFound = "submission not found or not authorized"

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	List(ctx context.Context, principal Principal, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, principal Principal, id uint) (dto.SubmissionResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	identity    IdentityService
	events      EventPublisher
	cache       CacheInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. events and cache may be nil.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, identity IdentityService, events EventPublisher, cache CacheInvalidator, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		identity:    identity,
		events:      events,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// List returns the caller's own submissions, or for professors the submissions
// to their projects' assignments.
func (s *submissionService) List(ctx context.Context, principal Principal, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter := repository.SubmissionFilter{AssignmentID: query.AssignmentID}
	switch {
	case isProfessor(user):
		filter.ProfessorID = &user.Professor.ID
		filter.StudentID = query.StudentID
	case isStudent(user):
		filter.StudentID = &user.Student.ID
	default:
		return nil, forbidden("unsupported role")
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponses(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, principal Principal, id uint) (dto.SubmissionResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, notFound(submissionNotFound)
		}
		return dto.SubmissionResponse{}, err
	}

	if !canViewSubmission(user, submission) {
		return dto.SubmissionResponse{}, notFound(submissionNotFound)
	}
	return dto.NewSubmissionResponse(submission), nil
}

// Create stores a student's answer with its late penalty frozen at submission
// time, awarding EarlyBird when it arrives a week or more before the due date.
func (s *submissionService) Create(ctx context.Context, principal Principal, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.create")
	span.SetAttributes(attribute.Int64("submission.assignment_id", int64(payload.AssignmentID)))
	defer span.End()

	user, err := s.identity.RequireStudent(ctx, principal)
	if err != nil {
		span.SetStatus(codes.Error, "identity_rejected")
		return dto.SubmissionResponse{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}
	if err := ensureTextContent(payload.Content); err != nil {
		span.SetStatus(codes.Error, "content_rejected")
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.SubmissionResponse{}, notFound("assignment not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	now := s.now().UTC()
	submission := models.Submission{
		StudentID:    user.Student.ID,
		AssignmentID: assignment.ID,
		Content:      payload.Content,
		Penalty:      grading.LatePenalty(now, assignment.DueDate),
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	var badge *models.Badge
	if grading.IsEarlySubmission(now, assignment.DueDate) {
		badge = &models.Badge{Name: models.BadgeEarlyBird, StudentID: user.Student.ID, AwardedDate: now}
	}

	awarded, err := s.submissions.Create(ctx, &submission, badge)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			span.SetStatus(codes.Error, "duplicate_submission")
			return dto.SubmissionResponse{}, badInput("you have already submitted this assignment")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmissionResponse{}, err
	}

	submission.Assignment = &assignment
	submission.Student = &models.Student{ID: user.Student.ID, UserID: user.ID, User: &models.User{ID: user.ID, Name: user.Name}}
	response := dto.NewSubmissionResponse(submission)

	timeliness := "on_time"
	if submission.Penalty > 0 {
		timeliness = "late"
	}
	observability.Submissions().WithLabelValues(timeliness).Inc()
	span.SetAttributes(
		attribute.Int64("submission.id", int64(submission.ID)),
		attribute.Int("submission.penalty", submission.Penalty),
	)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", user.Student.ID).
		Int("penalty", submission.Penalty).
		Msg("submission created")

	if awarded {
		response.BadgesAwarded = append(response.BadgesAwarded, badge.Name)
		announceBadge(ctx, s.events, s.cache, s.logger, user.ID, *badge)
	}

	professorUserID := professorUserOf(assignment)
	if s.cache != nil {
		s.cache.InvalidateLeaderboard(ctx)
		s.cache.InvalidateDashboards(ctx, user.ID, professorUserID)
	}
	if s.events != nil && professorUserID != 0 {
		s.events.Publish(ctx, dto.Event{
			Type:       dto.EventSubmissionCreated,
			UserID:     professorUserID,
			Data:       response,
			OccurredAt: now,
		})
	}

	return response, nil
}

func canViewSubmission(user models.User, submission models.Submission) bool {
	if isStudent(user) {
		return submission.StudentID == user.Student.ID
	}
	if submission.Assignment == nil {
		return false
	}
	return ownsProject(user, submission.Assignment.Project)
}

func professorUserOf(assignment models.Assignment) uint {
	if assignment.Project == nil || assignment.Project.Professor == nil {
		return 0
	}
	return assignment.Project.Professor.UserID
}
