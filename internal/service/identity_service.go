package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
)

// Principal is the authenticated identity taken from the access token.
type Principal struct {
	UserID uint
	Email  string
	Role   models.Role
}

// IdentityService resolves principals to accounts and enforces roles.
type IdentityService interface {
	Resolve(ctx context.Context, principal Principal) (models.User, error)
	RequireProfessor(ctx context.Context, principal Principal) (models.User, error)
	RequireStudent(ctx context.Context, principal Principal) (models.User, error)
}

type identityService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewIdentityService constructs the identity guard.
func NewIdentityService(users repository.UserRepository, logger zerolog.Logger) IdentityService {
	return &identityService{
		users:  users,
		logger: logger.With().Str("component", "identity_service").Logger(),
	}
}

// Resolve loads the account behind the principal. The stored role is authoritative.
func (s *identityService) Resolve(ctx context.Context, principal Principal) (models.User, error) {
	email := strings.TrimSpace(principal.Email)
	if email == "" {
		return models.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, notFound("user not found")
		}
		return models.User{}, err
	}

	return user, nil
}

func (s *identityService) RequireProfessor(ctx context.Context, principal Principal) (models.User, error) {
	user, err := s.Resolve(ctx, principal)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != models.RoleProfessor || user.Professor == nil {
		return models.User{}, forbidden("only professors can perform this action")
	}
	return user, nil
}

func (s *identityService) RequireStudent(ctx context.Context, principal Principal) (models.User, error) {
	user, err := s.Resolve(ctx, principal)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != models.RoleStudent || user.Student == nil {
		return models.User{}, forbidden("only students can perform this action")
	}
	return user, nil
}

func isProfessor(user models.User) bool {
	return user.Role == models.RoleProfessor && user.Professor != nil
}

func isStudent(user models.User) bool {
	return user.Role == models.RoleStudent && user.Student != nil
}

func ownsProject(user models.User, project *models.Project) bool {
	return isProfessor(user) && project != nil && project.ProfessorID == user.Professor.ID
}
