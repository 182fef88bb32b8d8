package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/service"
	"github.com/evalhub/review-api/internal/utils"
)

// AdminRosterHandler exposes the coordinator endpoints for reviewer
// assignment, revocation and restoration.
type AdminRosterHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewAdminRosterHandler builds a roster handler instance.
func NewAdminRosterHandler(service service.RosterService, logger zerolog.Logger) *AdminRosterHandler {
	return &AdminRosterHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_roster_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminRosterHandler) Register(router fiber.Router) {
	router.Get("/submissions/:id/reviewers", h.roster)
	router.Post("/submissions/:id/reviewers", h.assign)
	router.Post("/submissions/:id/reviewers/revoke", h.revoke)
	router.Post("/submissions/:id/reviewers/restore", h.restore)
	router.Post("/reviewers/bulk-assign", h.assignBulk)
}

func (h *AdminRosterHandler) roster(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	roster, err := h.service.Roster(c.Context(), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "roster retrieved", roster)
}

func (h *AdminRosterHandler) assign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RosterAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	roster, err := h.service.Assign(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "reviewers assigned", roster)
}

func (h *AdminRosterHandler) revoke(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RosterRevokeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	roster, err := h.service.Revoke(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment revoked", roster)
}

func (h *AdminRosterHandler) restore(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RosterRestoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	roster, err := h.service.Restore(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment restored", roster)
}

func (h *AdminRosterHandler) assignBulk(c *fiber.Ctx) error {
	var payload dto.RosterBulkAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	items, err := h.service.AssignBulk(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "bulk assignment processed", items)
}
