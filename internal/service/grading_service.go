package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/pkg/ai"
)

// GradingService grades submissions manually or through the AI grader.
type GradingService interface {
	GradeManually(ctx context.Context, principal Principal, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error)
	GradeWithAI(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	identity    IdentityService
	grader      ai.Grader
	activity    ActivityRecorder
	events      EventPublisher
	cache       CacheInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// gradeUpdate is a grade about to be written to a submission.
type gradeUpdate struct {
	raw      float64
	feedback *string
	remarks  *string
	action   string
	metadata map[string]interface{}
}

// NewGradingService constructs the grading service. A nil grader makes AI grading unavailable.
func NewGradingService(submissions repository.SubmissionRepository, identity IdentityService, grader ai.Grader, activity ActivityRecorder, events EventPublisher, cache CacheInvalidator, validator *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		identity:    identity,
		grader:      grader,
		activity:    activity,
		events:      events,
		cache:       cache,
		validator:   validator,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) GradeManually(ctx context.Context, principal Principal, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.manual")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	user, submission, err := s.loadOwned(ctx, span, principal, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	update := gradeUpdate{
		raw:    *payload.Grade,
		action: models.ActivityActionGrade,
	}
	if remarks := plainText(payload.Remarks); remarks != "" {
		update.remarks = &remarks
	}
	if feedback := plainText(payload.Feedback); feedback != "" {
		update.feedback = &feedback
	}

	return s.apply(ctx, span, user, submission, update)
}

func (s *gradingService) GradeWithAI(ctx context.Context, principal Principal, submissionID uint) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/projeval-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.ai")
	span.SetAttributes(attribute.Int64("grading.submission_id", int64(submissionID)))
	defer span.End()

	user, submission, err := s.loadOwned(ctx, span, principal, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.grader == nil {
		span.SetStatus(codes.Error, "grader_unavailable")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: no ai provider configured", ErrGradingUnavailable)
	}

	assignment := submission.Assignment
	rubric := assignment.Rubrics
	if rubric == "" {
		rubric = ai.DefaultRubric
	}

	result, err := s.grader.Grade(ctx, ai.GradingInput{
		Content:   submission.Content,
		Rubric:    rubric,
		MaxPoints: assignment.MaxPoints,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ai_grading_failed")
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("ai grading failed")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrGradingUnavailable, err)
	}

	feedback := plainText(result.Feedback)
	update := gradeUpdate{
		raw:      float64(result.Grade),
		feedback: &feedback,
		action:   models.ActivityActionGradeAI,
		metadata: map[string]interface{}{
			"model":  result.Model,
			"format": string(result.Format),
		},
	}

	return s.apply(ctx, span, user, submission, update)
}

func (s *gradingService) loadOwned(ctx context.Context, span trace.Span, principal Principal, submissionID uint) (models.User, models.Submission, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		span.SetStatus(codes.Error, "identity_rejected")
		return models.User{}, models.Submission{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return models.User{}, models.Submission{}, notFound(submissionNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return models.User{}, models.Submission{}, err
	}

	if submission.Assignment == nil || !ownsProject(user, submission.Assignment.Project) {
		span.SetStatus(codes.Error, "submission_not_owned")
		return models.User{}, models.Submission{}, notFound(submissionNotFound)
	}

	return user, submission, nil
}

// apply writes the raw and post-penalty grade, awarding Perfectionist in the
// same transaction when the final grade reaches the assignment's maximum.
func (s *gradingService) apply(ctx context.Context, span trace.Span, user models.User, submission models.Submission, update gradeUpdate) (dto.SubmissionResponse, error) {
	assignment := submission.Assignment
	final := grading.FinalGrade(update.raw, submission.Penalty)
	now := s.now().UTC()

	raw := update.raw
	submission.RawGrade = &raw
	submission.Grade = &final
	submission.UpdatedAt = now
	if update.feedback != nil {
		submission.Feedback = *update.feedback
	}
	if update.remarks != nil {
		submission.Remarks = *update.remarks
	}

	var badge *models.Badge
	if grading.IsPerfect(final, assignment.MaxPoints) {
		badge = &models.Badge{Name: models.BadgePerfectionist, StudentID: submission.StudentID, AwardedDate: now}
	}

	awarded, err := s.submissions.UpdateGrade(ctx, &submission, badge)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, notFound(submissionNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(
		attribute.Float64("grading.raw_grade", raw),
		attribute.Int("grading.final_grade", final),
		attribute.Int("grading.penalty", submission.Penalty),
	)
	span.SetStatus(codes.Ok, "graded")

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("raw_grade", raw).
		Int("grade", final).
		Int("penalty", submission.Penalty).
		Str("action", update.action).
		Msg("submission graded")

	response := dto.NewSubmissionResponse(submission)
	studentUserID := submission.StudentUserID()

	if awarded {
		response.BadgesAwarded = append(response.BadgesAwarded, badge.Name)
		announceBadge(ctx, s.events, s.cache, s.logger, studentUserID, *badge)
	}

	metadata := map[string]interface{}{
		"raw_grade":     raw,
		"grade":         final,
		"penalty":       submission.Penalty,
		"assignment_id": submission.AssignmentID,
	}
	for key, value := range update.metadata {
		metadata[key] = value
	}
	entityID := submission.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    user.ID,
		ActorRole:  user.Role,
		Action:     update.action,
		EntityType: models.ActivityEntitySubmission,
		EntityID:   &entityID,
		Metadata:   metadata,
	})

	if s.cache != nil {
		s.cache.InvalidateLeaderboard(ctx)
		s.cache.InvalidateDashboards(ctx, user.ID, studentUserID)
	}
	if s.events != nil && studentUserID != 0 {
		s.events.Publish(ctx, dto.Event{
			Type:       dto.EventSubmissionGraded,
			UserID:     studentUserID,
			Data:       response,
			OccurredAt: now,
		})
	}

	return response, nil
}
