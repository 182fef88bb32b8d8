package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

type testEnv struct {
	db            *gorm.DB
	cache         *redis.Client
	roster        RosterService
	evaluations   EvaluationService
	lifecycle     LifecycleService
	visibility    VisibilityService
	questionnaire QuestionnaireService
	submissions   SubmissionService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))

	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	callRepo := repository.NewCallRepository(db)
	reviewerRepo := repository.NewReviewerRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	questionnaireRepo := repository.NewQuestionnaireRepository(db)
	eventRepo := repository.NewEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	audit := NewAuditService(auditRepo, logger)
	evaluations := NewEvaluationService(evaluationRepo, rosterRepo, submissionRepo, callRepo, cache, time.Minute, validate, audit, logger)

	return testEnv{
		db:            db,
		cache:         cache,
		roster:        NewRosterService(rosterRepo, reviewerRepo, submissionRepo, validate, audit, logger),
		evaluations:   evaluations,
		lifecycle:     NewLifecycleService(submissionRepo, validate, audit, nil, logger),
		visibility:    NewVisibilityService(submissionRepo, rosterRepo, validate, audit, logger),
		questionnaire: NewQuestionnaireService(questionnaireRepo, eventRepo, validate, audit, nil, logger),
		submissions:   NewSubmissionService(submissionRepo, callRepo, evaluations, validate, logger),
	}
}

func seedCall(t *testing.T, db *gorm.DB, open bool) models.Call {
	t.Helper()
	now := time.Now()
	call := models.Call{
		Title:              "Annual Research Call",
		SubmissionOpensAt:  now.Add(-24 * time.Hour),
		SubmissionClosesAt: now.Add(24 * time.Hour),
	}
	if !open {
		call.SubmissionOpensAt = now.Add(-48 * time.Hour)
		call.SubmissionClosesAt = now.Add(-24 * time.Hour)
	}
	require.NoError(t, call.SetCriteria(models.DefaultCriteria()))
	require.NoError(t, db.Create(&call).Error)
	return call
}

func seedSubmission(t *testing.T, db *gorm.DB, call models.Call, authorID uint, status string) models.Submission {
	t.Helper()
	submission := models.Submission{
		CallID:   call.ID,
		AuthorID: authorID,
		Title:    "On the Aggregation of Review Scores",
		Status:   status,
	}
	require.NoError(t, db.Create(&submission).Error)
	submission.Call = call
	return submission
}

func seedEvent(t *testing.T, db *gorm.DB) models.Event {
	t.Helper()
	now := time.Now()
	event := models.Event{
		Title:    "Methodology Workshop",
		StartsAt: now.Add(24 * time.Hour),
		EndsAt:   now.Add(26 * time.Hour),
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func seedReviewer(t *testing.T, db *gorm.DB, name string) models.Reviewer {
	t.Helper()
	reviewer := models.Reviewer{Name: name, Email: fmt.Sprintf("%s@%s.example.com", name, t.Name())}
	require.NoError(t, db.Create(&reviewer).Error)
	return reviewer
}

func coordinator() Actor {
	return Actor{ID: 99, Role: RoleCoordinator}
}
