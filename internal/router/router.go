package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/evalhub/review-api/internal/config"
	"github.com/evalhub/review-api/internal/handler"
	"github.com/evalhub/review-api/internal/middleware"
	"github.com/evalhub/review-api/internal/observability"
	"github.com/evalhub/review-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler    *handler.SubmissionHandler
	RosterHandler        *handler.AdminRosterHandler
	EvaluationHandler    *handler.AdminEvaluationHandler
	LifecycleHandler     *handler.AdminLifecycleHandler
	QuestionnaireHandler *handler.QuestionnaireHandler
	AuditHandler         *handler.AdminAuditHandler
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Author surface: drafting and reading back own submissions
	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, middleware.RateLimit("submissions", 60, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}

	// Coordinator surface: roster, scoring, lifecycle, questionnaires, audit
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(service.RoleCoordinator))
	if deps.RosterHandler != nil {
		deps.RosterHandler.Register(admin)
	}
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(admin)
	}
	if deps.LifecycleHandler != nil {
		deps.LifecycleHandler.Register(admin)
	}
	if deps.QuestionnaireHandler != nil {
		deps.QuestionnaireHandler.Register(admin)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin)
	}
}
