package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/service"
	"github.com/noah-isme/projeval-api/internal/utils"
)

// SubmissionHandler wires submission, grading and submission search routes.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	analytics   service.AnalyticsService
	aiLimiter   fiber.Handler
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler. aiLimiter guards AI grading and may be nil.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, analytics service.AnalyticsService, aiLimiter fiber.Handler, logger zerolog.Logger) *SubmissionHandler {
	if aiLimiter == nil {
		aiLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		analytics:   analytics,
		aiLimiter:   aiLimiter,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	professor := middleware.AuthOptions{Role: middleware.AuthRoleProfessor}
	student := middleware.AuthOptions{Role: middleware.AuthRoleStudent}

	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{}))
	router.Post("", middleware.WithAuth(h.create, student))
	router.Get("/filter", middleware.WithAuth(h.search, professor))
	router.Get("/counts", middleware.WithAuth(h.counts, professor))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{}))
	router.Put("/:id", middleware.WithAuth(h.grade, professor))
	router.Post("/:id/grade-ai", h.aiLimiter, middleware.WithAuth(h.gradeWithAI, professor))
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	assignmentID, err := parseQueryUint(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}
	studentID, err := parseQueryUint(c, "studentId")
	if err != nil {
		return badRequest(c, err)
	}

	submissions, err := h.submissions.List(c.UserContext(), principalFromContext(c), dto.SubmissionListQuery{
		AssignmentID: assignmentID,
		StudentID:    studentID,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	submission, err := h.submissions.Get(c.UserContext(), principalFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Create(c.UserContext(), principalFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.GradeManually(c.UserContext(), principalFromContext(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) gradeWithAI(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	submission, err := h.grading.GradeWithAI(c.UserContext(), principalFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission graded by ai", submission)
}

func (h *SubmissionHandler) search(c *fiber.Ctx) error {
	query := dto.SubmissionSearchQuery{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	var err error
	if query.AssignmentID, err = parseQueryUint(c, "assignmentId"); err != nil {
		return badRequest(c, err)
	}
	if query.ProjectID, err = parseQueryUint(c, "projectId"); err != nil {
		return badRequest(c, err)
	}
	if query.MinGrade, err = parseQueryInt(c, "minGrade"); err != nil {
		return badRequest(c, err)
	}
	if query.MaxGrade, err = parseQueryInt(c, "maxGrade"); err != nil {
		return badRequest(c, err)
	}
	if query.IsGraded, err = parseQueryBool(c, "isGraded"); err != nil {
		return badRequest(c, err)
	}
	if query.IsLate, err = parseQueryBool(c, "isLate"); err != nil {
		return badRequest(c, err)
	}

	rows, err := h.analytics.SearchSubmissions(c.UserContext(), principalFromContext(c), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", rows)
}

func (h *SubmissionHandler) counts(c *fiber.Ctx) error {
	counts, err := h.analytics.SubmissionCounts(c.UserContext(), principalFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission counts retrieved", counts)
}
