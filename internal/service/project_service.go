package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
)

const projectNotFound = "project not found or not authorized"

// ProjectService manages professors' projects.
type ProjectService interface {
	List(ctx context.Context, principal Principal) ([]dto.ProjectResponse, error)
	Get(ctx context.Context, principal Principal, id uint) (dto.ProjectResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.ProjectRequest) (dto.ProjectResponse, error)
	Update(ctx context.Context, principal Principal, id uint, payload dto.ProjectRequest) (dto.ProjectResponse, error)
	Delete(ctx context.Context, principal Principal, id uint) error
}

type projectService struct {
	projects    repository.ProjectRepository
	assignments repository.AssignmentRepository
	identity    IdentityService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(projects repository.ProjectRepository, assignments repository.AssignmentRepository, identity IdentityService, validator *validator.Validate, logger zerolog.Logger) ProjectService {
	return &projectService{
		projects:    projects,
		assignments: assignments,
		identity:    identity,
		validator:   validator,
		logger:      logger.With().Str("component", "project_service").Logger(),
	}
}

// List returns the professor's own projects, or every project for students.
func (s *projectService) List(ctx context.Context, principal Principal) ([]dto.ProjectResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter := repository.ProjectFilter{}
	if isProfessor(user) {
		filter.ProfessorID = &user.Professor.ID
	}

	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var counts map[uint]int64
	if isProfessor(user) {
		if counts, err = s.assignments.CountSubmissions(ctx, assignmentIDsOf(projects)); err != nil {
			return nil, err
		}
	}

	responses := make([]dto.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, dto.NewProjectResponse(project, counts))
	}
	return responses, nil
}

func (s *projectService) Get(ctx context.Context, principal Principal, id uint) (dto.ProjectResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	if !isProfessor(user) {
		return dto.NewProjectResponse(project, nil), nil
	}
	if !ownsProject(user, &project) {
		return dto.ProjectResponse{}, notFound(projectNotFound)
	}

	counts, err := s.assignments.CountSubmissions(ctx, assignmentIDsOf([]models.Project{project}))
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	return dto.NewProjectResponse(project, counts), nil
}

func (s *projectService) Create(ctx context.Context, principal Principal, payload dto.ProjectRequest) (dto.ProjectResponse, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	payload = cleanProjectRequest(payload)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	project := models.Project{
		Name:        payload.Name,
		Description: payload.Description,
		ProfessorID: user.Professor.ID,
	}
	if err := s.projects.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", project.ID).Uint("professor_id", user.Professor.ID).Msg("project created")
	return dto.NewProjectResponse(project, map[uint]int64{}), nil
}

func (s *projectService) Update(ctx context.Context, principal Principal, id uint, payload dto.ProjectRequest) (dto.ProjectResponse, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	if !ownsProject(user, &project) {
		return dto.ProjectResponse{}, notFound(projectNotFound)
	}

	payload = cleanProjectRequest(payload)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	project.Name = payload.Name
	project.Description = payload.Description
	if err := s.projects.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	return s.Get(ctx, principal, id)
}

func (s *projectService) Delete(ctx context.Context, principal Principal, id uint) error {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !ownsProject(user, &project) {
		return notFound(projectNotFound)
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(projectNotFound)
		}
		return err
	}

	s.logger.Info().Uint("project_id", id).Msg("project deleted")
	return nil
}

func (s *projectService) load(ctx context.Context, id uint) (models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, notFound(projectNotFound)
		}
		return models.Project{}, err
	}
	return project, nil
}

func cleanProjectRequest(payload dto.ProjectRequest) dto.ProjectRequest {
	payload.Name = plainText(payload.Name)
	payload.Description = plainText(payload.Description)
	return payload
}

func assignmentIDsOf(projects []models.Project) []uint {
	ids := make([]uint, 0)
	for _, project := range projects {
		for _, assignment := range project.Assignments {
			ids = append(ids, assignment.ID)
		}
	}
	return ids
}
