package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/grading"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/repository"
)

const assignmentNotFound = "assignment not found or not authorized"

// AssignmentService manages assignments inside projects.
type AssignmentService interface {
	List(ctx context.Context, principal Principal, projectID *uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, principal Principal, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, principal Principal, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, principal Principal, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	projects    repository.ProjectRepository
	submissions repository.SubmissionRepository
	identity    IdentityService
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, projects repository.ProjectRepository, submissions repository.SubmissionRepository, identity IdentityService, validator *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		projects:    projects,
		submissions: submissions,
		identity:    identity,
		validator:   validator,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

// List returns assignments ordered by due date. Professors see their own projects'
// assignments with submission counts; students see every assignment with their
// own submission status.
func (s *assignmentService) List(ctx context.Context, principal Principal, projectID *uint) ([]dto.AssignmentResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter := repository.AssignmentFilter{ProjectID: projectID}
	if isProfessor(user) {
		if projectID != nil {
			if _, err := s.ownedProject(ctx, user, *projectID); err != nil {
				return nil, err
			}
		} else {
			filter.ProfessorID = &user.Professor.ID
		}
	}

	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if isStudent(user) {
		return s.withStudentStatus(ctx, user, assignments)
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}
	counts, err := s.assignments.CountSubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response := dto.NewAssignmentResponse(assignment)
		count := counts[assignment.ID]
		response.SubmissionCount = &count
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *assignmentService) Get(ctx context.Context, principal Principal, id uint) (dto.AssignmentResponse, error) {
	user, err := s.identity.Resolve(ctx, principal)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if isStudent(user) {
		responses, err := s.withStudentStatus(ctx, user, []models.Assignment{assignment})
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		return responses[0], nil
	}

	if !ownsProject(user, assignment.Project) {
		return dto.AssignmentResponse{}, notFound(assignmentNotFound)
	}

	counts, err := s.assignments.CountSubmissions(ctx, []uint{assignment.ID})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	response := dto.NewAssignmentResponse(assignment)
	count := counts[assignment.ID]
	response.SubmissionCount = &count
	return response, nil
}

func (s *assignmentService) Create(ctx context.Context, principal Principal, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	payload.Name = plainText(payload.Name)
	payload.Description = plainText(payload.Description)
	payload.Rubrics = plainText(payload.Rubrics)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	project, err := s.ownedProject(ctx, user, payload.ProjectID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	maxPoints := payload.MaxPoints
	if maxPoints <= 0 {
		maxPoints = models.DefaultMaxPoints
	}

	assignment := models.Assignment{
		Name:        payload.Name,
		Description: payload.Description,
		Rubrics:     payload.Rubrics,
		DueDate:     payload.DueDate.UTC(),
		MaxPoints:   maxPoints,
		ProjectID:   project.ID,
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	assignment.Project = &project

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("project_id", project.ID).Msg("assignment created")

	response := dto.NewAssignmentResponse(assignment)
	zero := int64(0)
	response.SubmissionCount = &zero
	return response, nil
}

func (s *assignmentService) Update(ctx context.Context, principal Principal, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !ownsProject(user, assignment.Project) {
		return dto.AssignmentResponse{}, notFound(assignmentNotFound)
	}

	payload.Name = plainText(payload.Name)
	payload.Description = plainText(payload.Description)
	payload.Rubrics = plainText(payload.Rubrics)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment.Name = payload.Name
	assignment.Description = payload.Description
	assignment.Rubrics = payload.Rubrics
	assignment.DueDate = payload.DueDate.UTC()
	if payload.MaxPoints > 0 {
		assignment.MaxPoints = payload.MaxPoints
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return s.Get(ctx, principal, id)
}

func (s *assignmentService) Delete(ctx context.Context, principal Principal, id uint) error {
	user, err := s.identity.RequireProfessor(ctx, principal)
	if err != nil {
		return err
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !ownsProject(user, assignment.Project) {
		return notFound(assignmentNotFound)
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(assignmentNotFound)
		}
		return err
	}
	return nil
}

func (s *assignmentService) withStudentStatus(ctx context.Context, user models.User, assignments []models.Assignment) ([]dto.AssignmentResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &user.Student.ID})
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[uint]*models.Submission, len(submissions))
	for i := range submissions {
		byAssignment[submissions[i].AssignmentID] = &submissions[i]
	}

	now := s.now()
	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response := dto.NewAssignmentResponse(assignment).WithSubmission(byAssignment[assignment.ID])
		days := grading.DaysUntilDue(now, assignment.DueDate)
		response.DaysUntilDue = &days
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *assignmentService) ownedProject(ctx context.Context, user models.User, projectID uint) (models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, notFound(projectNotFound)
		}
		return models.Project{}, err
	}
	if !ownsProject(user, &project) {
		return models.Project{}, notFound(projectNotFound)
	}
	return project, nil
}

func (s *assignmentService) load(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, notFound(assignmentNotFound)
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}
