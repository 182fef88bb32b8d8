package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/service"
	"github.com/evalhub/review-api/internal/utils"
)

// AdminLifecycleHandler exposes status transitions, finalization and
// grade visibility for coordinators.
type AdminLifecycleHandler struct {
	lifecycle  service.LifecycleService
	visibility service.VisibilityService
	logger     zerolog.Logger
}

// NewAdminLifecycleHandler builds a lifecycle handler instance.
func NewAdminLifecycleHandler(lifecycle service.LifecycleService, visibility service.VisibilityService, logger zerolog.Logger) *AdminLifecycleHandler {
	return &AdminLifecycleHandler{
		lifecycle:  lifecycle,
		visibility: visibility,
		logger:     logger.With().Str("component", "admin_lifecycle_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminLifecycleHandler) Register(router fiber.Router) {
	router.Patch("/submissions/:id/status", h.changeStatus)
	router.Post("/submissions/:id/finalize", h.finalize)
	router.Patch("/submissions/:id/visibility", h.setVisibility)
}

func (h *AdminLifecycleHandler) changeStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StatusChangeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.lifecycle.ChangeStatus(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "status updated", submission)
}

func (h *AdminLifecycleHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.lifecycle.Finalize(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission finalized", submission)
}

func (h *AdminLifecycleHandler) setVisibility(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.VisibilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.visibility.SetVisible(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "visibility updated", submission)
}
