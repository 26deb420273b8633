package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/observability"
	"github.com/noah-isme/projeval-api/internal/repository"
)

// BadgeService awards and lists gamification badges.
type BadgeService interface {
	AwardIfAbsent(ctx context.Context, studentID uint, name string) (dto.BadgeResponse, bool, error)
	Award(ctx context.Context, principal Principal, payload dto.BadgeAwardRequest) (dto.BadgeResponse, error)
	AwardCollaborator(ctx context.Context, principal Principal, payload dto.CollaboratorBadgeRequest) (dto.BadgeResponse, error)
	ListMine(ctx context.Context, principal Principal) ([]dto.BadgeResponse, error)
	ListStudents(ctx context.Context, principal Principal) ([]dto.StudentResponse, error)
}

type badgeService struct {
	badges    repository.BadgeRepository
	users     repository.UserRepository
	identity  IdentityService
	activity  ActivityRecorder
	events    EventPublisher
	cache     CacheInvalidator
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBadgeService constructs the badge service. activity, events and cache may be nil.
func NewBadgeService(badges repository.BadgeRepository, users repository.UserRepository, identity IdentityService, activity ActivityRecorder, events EventPublisher, cache CacheInvalidator, validator *validator.Validate, logger zerolog.Logger) BadgeService {
	return &badgeService{
		badges:    badges,
		users:     users,
		identity:  identity,
		activity:  activity,
		events:    events,
		cache:     cache,
		validator: validator,
		logger:    logger.With().Str("component", "badge_service").Logger(),
		now:       time.Now,
	}
}

// AwardIfAbsent awards the badge unless the student already holds it.
// The flag reports whether a new badge was inserted.
func (s *badgeService) AwardIfAbsent(ctx context.Context, studentID uint, name string) (dto.BadgeResponse, bool, error) {
	student, err := s.users.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BadgeResponse{}, false, notFound("student not found")
		}
		return dto.BadgeResponse{}, false, err
	}

	badge := models.Badge{Name: name, StudentID: student.ID, AwardedDate: s.now().UTC()}
	inserted, err := s.badges.InsertIfAbsent(ctx, &badge)
	if err != nil || !inserted {
		return dto.BadgeResponse{}, false, err
	}

	announceBadge(ctx, s.events, s.cache, s.logger, student.UserID, badge)
	return dto.NewBadgeResponse(badge), true, nil
}

func (s *badgeService) Award(ctx context.Context, principal Principal, payload dto.BadgeAwardRequest) (dto.BadgeResponse, error) {
	payload.Name = plainText(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.BadgeResponse{}, err
	}
	return s.award(ctx, principal, payload.StudentID, payload.Name)
}

func (s *badgeService) AwardCollaborator(ctx context.Context, principal Principal, payload dto.CollaboratorBadgeRequest) (dto.BadgeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BadgeResponse{}, err
	}
	return s.award(ctx, principal, payload.StudentID, models.BadgeCollaborator)
}

func (s *badgeService) award(ctx context.Context, principal Principal, studentID uint, name string) (dto.BadgeResponse, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return dto.BadgeResponse{}, err
	}

	badge, inserted, err := s.AwardIfAbsent(ctx, studentID, name)
	if err != nil {
		return dto.BadgeResponse{}, err
	}
	if !inserted {
		return dto.BadgeResponse{}, badInput("student already has this badge")
	}

	entityID := badge.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    user.ID,
		ActorRole:  user.Role,
		Action:     models.ActivityActionAwardBadge,
		EntityType: models.ActivityEntityBadge,
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"badge":      badge.Name,
			"student_id": badge.StudentID,
		},
	})

	return badge, nil
}

func (s *badgeService) ListMine(ctx context.Context, principal Principal) ([]dto.BadgeResponse, error) {
	user, err := s.identity.RequireStudent(ctx, principal)
	if err != nil {
		return nil, err
	}

	badges, err := s.badges.ListByStudent(ctx, user.Student.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.BadgeResponse, 0, len(badges))
	for _, badge := range badges {
		responses = append(responses, dto.NewBadgeResponse(badge))
	}
	return responses, nil
}

func (s *badgeService) ListStudents(ctx context.Context, principal Principal) ([]dto.StudentResponse, error) {
	if _, err := s.identity.RequireProfessor(ctx, principal); err != nil {
		return nil, err
	}

	students, err := s.users.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentResponse(student))
	}
	return responses, nil
}

// announceBadge runs the side effects of a newly inserted badge.
func announceBadge(ctx context.Context, events EventPublisher, cache CacheInvalidator, logger zerolog.Logger, studentUserID uint, badge models.Badge) {
	observability.BadgesAwarded().WithLabelValues(badgeMetricLabel(badge.Name)).Inc()
	logger.Info().Uint("student_id", badge.StudentID).Str("badge", badge.Name).Msg("badge awarded")

	if cache != nil {
		cache.InvalidateDashboards(ctx, studentUserID)
	}
	if events != nil {
		events.Publish(ctx, dto.Event{
			Type:       dto.EventBadgeAwarded,
			UserID:     studentUserID,
			Data:       dto.NewBadgeResponse(badge),
			OccurredAt: badge.AwardedDate,
		})
	}
}

// badgeMetricLabel keeps the metric cardinality fixed; professor-defined names share one label.
func badgeMetricLabel(name string) string {
	switch name {
	case models.BadgeEarlyBird, models.BadgePerfectionist, models.BadgeCollaborator:
		return strings.ToLower(name)
	}
	return "custom"
}
