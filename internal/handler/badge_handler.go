package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/service"
	"github.com/noah-isme/projeval-api/internal/utils"
)

// BadgeHandler exposes badge listing and awarding.
type BadgeHandler struct {
	service service.BadgeService
	logger  zerolog.Logger
}

// NewBadgeHandler constructs the handler.
func NewBadgeHandler(service service.BadgeService, logger zerolog.Logger) *BadgeHandler {
	return &BadgeHandler{
		service: service,
		logger:  logger.With().Str("component", "badge_handler").Logger(),
	}
}

// Register mounts /badges routes.
func (h *BadgeHandler) Register(router fiber.Router) {
	professor := middleware.AuthOptions{Role: middleware.AuthRoleProfessor}
	router.Get("", middleware.WithAuth(h.listMine, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("", middleware.WithAuth(h.award, professor))
	router.Post("/collaborator", middleware.WithAuth(h.awardCollaborator, professor))
}

// RegisterStudents mounts the student directory used when awarding badges.
func (h *BadgeHandler) RegisterStudents(router fiber.Router) {
	router.Get("", middleware.RequireRole(middleware.AuthRoleProfessor), h.listStudents)
}

func (h *BadgeHandler) listMine(c *fiber.Ctx) error {
	badges, err := h.service.ListMine(c.UserContext(), principalFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "badges retrieved", badges)
}

func (h *BadgeHandler) award(c *fiber.Ctx) error {
	var payload dto.BadgeAwardRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	badge, err := h.service.Award(c.UserContext(), principalFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "badge awarded", badge)
}

func (h *BadgeHandler) awardCollaborator(c *fiber.Ctx) error {
	var payload dto.CollaboratorBadgeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	badge, err := h.service.AwardCollaborator(c.UserContext(), principalFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "badge awarded", badge)
}

func (h *BadgeHandler) listStudents(c *fiber.Ctx) error {
	students, err := h.service.ListStudents(c.UserContext(), principalFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "students retrieved", students)
}
