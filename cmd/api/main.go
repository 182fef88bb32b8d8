package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/evalhub/review-api/internal/config"
	"github.com/evalhub/review-api/internal/database"
	"github.com/evalhub/review-api/internal/handler"
	"github.com/evalhub/review-api/internal/middleware"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
	"github.com/evalhub/review-api/internal/router"
	"github.com/evalhub/review-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Call{},
		&models.Submission{},
		&models.Reviewer{},
		&models.ReviewerAssignment{},
		&models.Evaluation{},
		&models.Event{},
		&models.Questionnaire{},
		&models.Question{},
		&models.Alternative{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional: without it status and publish events are dropped
	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events disabled")
		} else {
			defer natsConn.Close()
		}
	}
	publisher := service.NewEventPublisher(natsConn, cfg.EventPrefix, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	callRepo := repository.NewCallRepository(db)
	reviewerRepo := repository.NewReviewerRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	questionnaireRepo := repository.NewQuestionnaireRepository(db)
	eventRepo := repository.NewEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, rosterRepo, submissionRepo, callRepo, redisClient, cfg.RankingCacheTTL, validate, auditService, logger)
	rosterService := service.NewRosterService(rosterRepo, reviewerRepo, submissionRepo, validate, auditService, logger)
	lifecycleService := service.NewLifecycleService(submissionRepo, validate, auditService, publisher, logger)
	visibilityService := service.NewVisibilityService(submissionRepo, rosterRepo, validate, auditService, logger)
	questionnaireService := service.NewQuestionnaireService(questionnaireRepo, eventRepo, validate, auditService, publisher, logger)
	submissionService := service.NewSubmissionService(submissionRepo, callRepo, evaluationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:    handler.NewSubmissionHandler(submissionService, logger),
		RosterHandler:        handler.NewAdminRosterHandler(rosterService, logger),
		EvaluationHandler:    handler.NewAdminEvaluationHandler(evaluationService, logger),
		LifecycleHandler:     handler.NewAdminLifecycleHandler(lifecycleService, visibilityService, logger),
		QuestionnaireHandler: handler.NewQuestionnaireHandler(questionnaireService, logger),
		AuditHandler:         handler.NewAdminAuditHandler(auditService, logger),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
