package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/service"
	"github.com/evalhub/review-api/internal/utils"
)

// QuestionnaireHandler exposes questionnaire authoring and the publish
// gate.
type QuestionnaireHandler struct {
	service service.QuestionnaireService
	logger  zerolog.Logger
}

// NewQuestionnaireHandler builds a questionnaire handler instance.
func NewQuestionnaireHandler(service service.QuestionnaireService, logger zerolog.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		service: service,
		logger:  logger.With().Str("component", "questionnaire_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *QuestionnaireHandler) Register(router fiber.Router) {
	router.Get("/events/:id/questionnaire", h.getOrCreate)
	router.Get("/questionnaires/:id", h.get)
	router.Patch("/questionnaires/:id", h.updateMetadata)
	router.Post("/questionnaires/:id/publish", h.publish)
	router.Post("/questionnaires/:id/questions", h.addQuestion)
	router.Patch("/questions/:id", h.updateQuestion)
	router.Delete("/questions/:id", h.removeQuestion)
	router.Post("/questions/:id/alternatives", h.addAlternative)
	router.Post("/questions/:id/alternatives/:alternativeId/correct", h.setCorrect)
	router.Delete("/alternatives/:id", h.removeAlternative)
}

func (h *QuestionnaireHandler) getOrCreate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questionnaire, err := h.service.GetOrCreateForEvent(c.Context(), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "questionnaire retrieved", questionnaire)
}

func (h *QuestionnaireHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questionnaire, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "questionnaire retrieved", questionnaire)
}

func (h *QuestionnaireHandler) updateMetadata(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionnaireMetadataRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	questionnaire, err := h.service.UpdateMetadata(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "questionnaire updated", questionnaire)
}

func (h *QuestionnaireHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questionnaire, err := h.service.Publish(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "questionnaire published", questionnaire)
}

func (h *QuestionnaireHandler) addQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.AddQuestion(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question added", question)
}

func (h *QuestionnaireHandler) updateQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.UpdateQuestion(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuestionnaireHandler) removeQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questionnaire, err := h.service.RemoveQuestion(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "question removed", questionnaire)
}

func (h *QuestionnaireHandler) addAlternative(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AlternativeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.AddAlternative(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "alternative added", question)
}

func (h *QuestionnaireHandler) setCorrect(c *fiber.Ctx) error {
	questionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	alternativeID, err := parseUintParam(c, "alternativeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	question, err := h.service.SetAlternativeCorrect(c.Context(), actorFromContext(c), questionID, alternativeID)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "correct alternative updated", question)
}

func (h *QuestionnaireHandler) removeAlternative(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	question, err := h.service.RemoveAlternative(c.Context(), actorFromContext(c), id)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "alternative removed", question)
}
