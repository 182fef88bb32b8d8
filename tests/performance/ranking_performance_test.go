package performance_test

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/handler"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
	"github.com/evalhub/review-api/internal/service"
)

func setupRankingPerformanceApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Call{}, &models.Submission{}, &models.Reviewer{}, &models.ReviewerAssignment{}, &models.Evaluation{}))

	now := time.Now()
	call := models.Call{Title: "Perf Call", SubmissionOpensAt: now.Add(-time.Hour), SubmissionClosesAt: now.Add(time.Hour)}
	require.NoError(t, call.SetCriteria(models.DefaultCriteria()))
	require.NoError(t, db.Create(&call).Error)

	reviewers := make([]models.Reviewer, 0, 2)
	for i := 0; i < 2; i++ {
		reviewer := models.Reviewer{Name: fmt.Sprintf("reviewer-%d", i), Email: fmt.Sprintf("reviewer-%d@example.com", i)}
		require.NoError(t, db.Create(&reviewer).Error)
		reviewers = append(reviewers, reviewer)
	}

	// 50 fully staffed and scored submissions
	for i := 0; i < 50; i++ {
		submission := models.Submission{CallID: call.ID, AuthorID: uint(i + 1), Title: fmt.Sprintf("Submission %d", i), Status: models.SubmissionStatusUnderReview}
		require.NoError(t, db.Create(&submission).Error)
		for _, reviewer := range reviewers {
			assignment := models.ReviewerAssignment{SubmissionID: submission.ID, ReviewerID: reviewer.ID, Modality: models.ModalityExposition}
			require.NoError(t, db.Create(&assignment).Error)

			evaluation := models.Evaluation{SubmissionID: submission.ID, ReviewerID: reviewer.ID}
			require.NoError(t, evaluation.SetScores([]float64{float64(i % 5), 3, 4, 5}))
			require.NoError(t, db.Create(&evaluation).Error)
		}
	}

	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationService := service.NewEvaluationService(
		repository.NewEvaluationRepository(db),
		repository.NewRosterRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewCallRepository(db),
		cache,
		time.Minute,
		validate,
		nil,
		logger,
	)

	app := fiber.New()
	handler.NewAdminEvaluationHandler(evaluationService, logger).Register(app.Group("/api/v1/admin"))
	return app
}

func TestRankingLatencyP95(t *testing.T) {
	app := setupRankingPerformanceApp(t)

	// warm the cache once, then sample cached reads
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/calls/1/ranking", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _ = io.Copy(io.Discard, resp.Body)

	const samples = 40
	latencies := make([]time.Duration, 0, samples)
	for i := 0; i < samples; i++ {
		start := time.Now()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/calls/1/ranking", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		latencies = append(latencies, time.Since(start))
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p95 := latencies[int(math.Ceil(0.95*float64(samples)))-1]

	// generous bound: cached reads should stay well under it even on CI
	require.Less(t, p95, 250*time.Millisecond, "p95 ranking latency too high: %s", p95)
}
