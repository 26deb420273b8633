package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/service"
	"github.com/noah-isme/projeval-api/internal/utils"
)

// AnalyticsHandler exposes grade analytics and the leaderboard.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register mounts /analytics routes.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/assignments", middleware.WithAuth(h.assignments, middleware.AuthOptions{Role: middleware.AuthRoleProfessor}))
}

// RegisterLeaderboard mounts the leaderboard, readable by any signed-in user.
func (h *AnalyticsHandler) RegisterLeaderboard(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.leaderboard, middleware.AuthOptions{}))
}

func (h *AnalyticsHandler) assignments(c *fiber.Ctx) error {
	query := dto.AssignmentAnalyticsQuery{Type: c.Query("type", dto.AnalyticsTypeAverageGrades)}

	var err error
	if query.AssignmentID, err = parseQueryUint(c, "assignmentId"); err != nil {
		return badRequest(c, err)
	}
	if query.ProjectID, err = parseQueryUint(c, "projectId"); err != nil {
		return badRequest(c, err)
	}

	principal := principalFromContext(c)
	switch query.Type {
	case dto.AnalyticsTypeAverageGrades:
		stats, err := h.service.AverageGrades(c.UserContext(), principal, query.AssignmentID, query.ProjectID)
		if err != nil {
			return handleError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "average grades retrieved", stats)
	case dto.AnalyticsTypeMissingSubmissions:
		missing, err := h.service.MissingSubmissions(c.UserContext(), principal, query.AssignmentID)
		if err != nil {
			return handleError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "missing submissions retrieved", missing)
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "invalid analytics type")
	}
}

func (h *AnalyticsHandler) leaderboard(c *fiber.Ctx) error {
	entries, err := h.service.Leaderboard(c.UserContext(), principalFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "leaderboard retrieved", entries)
}
