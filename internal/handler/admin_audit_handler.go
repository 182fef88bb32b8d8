package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/service"
	"github.com/evalhub/review-api/internal/utils"
)

// AdminAuditHandler exposes the read side of the audit trail.
type AdminAuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAdminAuditHandler builds an audit handler instance.
func NewAdminAuditHandler(service service.AuditService, logger zerolog.Logger) *AdminAuditHandler {
	return &AdminAuditHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_audit_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminAuditHandler) Register(router fiber.Router) {
	router.Get("/audit", h.list)
}

func (h *AdminAuditHandler) list(c *fiber.Ctx) error {
	req := dto.AuditListRequest{
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	req.Page = page

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}
	req.PageSize = pageSize

	actorID, err := parseQueryInt(c, "actor_id")
	if err != nil || actorID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
	}
	req.ActorID = uint(actorID)

	entries, err := h.service.List(c.Context(), req)
	if err != nil {
		return respondDomainError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audit entries retrieved", entries)
}
