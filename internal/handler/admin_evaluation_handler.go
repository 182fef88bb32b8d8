package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/service"
	"github.com/evalhub/review-api/internal/utils"
)

// AdminEvaluationHandler exposes score recording, the aggregated grade
// and the per-call ranking view.
type AdminEvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewAdminEvaluationHandler builds an evaluation handler instance.
func NewAdminEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *AdminEvaluationHandler {
	return &AdminEvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminEvaluationHandler) Register(router fiber.Router) {
	router.Post("/submissions/:id/evaluations", h.record)
	router.Get("/submissions/:id/grade", h.grade)
	router.Get("/calls/:id/ranking", h.ranking)
}

func (h *AdminEvaluationHandler) record(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Record(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluation recorded", evaluation)
}

func (h *AdminEvaluationHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grade, err := h.service.Grade(c.Context(), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grade retrieved", grade)
}

func (h *AdminEvaluationHandler) ranking(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ranking, err := h.service.Ranking(c.Context(), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "ranking retrieved", ranking)
}
