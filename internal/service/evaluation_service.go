package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

// EvaluationService records per-criterion reviewer scores and aggregates
// them into the official grade and the ranking view.
type EvaluationService interface {
	Record(ctx context.Context, actor Actor, submissionID uint, payload dto.EvaluationRequest) (dto.EvaluationResponse, error)
	Grade(ctx context.Context, submissionID uint) (dto.GradeResponse, error)
	Ranking(ctx context.Context, callID uint) (dto.RankingResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	roster      repository.RosterRepository
	submissions repository.SubmissionRepository
	calls       repository.CallRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewEvaluationService builds the evaluation service.
func NewEvaluationService(evaluations repository.EvaluationRepository, roster repository.RosterRepository, submissions repository.SubmissionRepository, calls repository.CallRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		roster:      roster,
		submissions: submissions,
		calls:       calls,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		audit:       audit,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Record(ctx context.Context, actor Actor, submissionID uint, payload dto.EvaluationRequest) (dto.EvaluationResponse, error) {
	tracer := otel.Tracer("github.com/evalhub/review-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.record")
	span.SetAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
		attribute.Int64("evaluation.reviewer_id", int64(payload.ReviewerID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, apperr.NotFound("submission", submissionID)
		}
		return dto.EvaluationResponse{}, err
	}

	active, err := s.roster.HasActiveForReviewer(ctx, submissionID, payload.ReviewerID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}
	if !active {
		return dto.EvaluationResponse{}, apperr.Precondition("reviewer %d holds no active assignment for submission %d", payload.ReviewerID, submissionID)
	}

	criteria := submission.Call.CriteriaList()
	if len(payload.Scores) != len(criteria) {
		return dto.EvaluationResponse{}, apperr.ValidationField("scores", "expected %d values, got %d", len(criteria), len(payload.Scores))
	}
	for i, score := range payload.Scores {
		criterion := criteria[i]
		if score < criterion.MinScale || score > criterion.MaxScale {
			return dto.EvaluationResponse{}, apperr.ValidationField("scores",
				"criterion %q score %.2f outside scale [%.0f, %.0f]", criterion.Name, score, criterion.MinScale, criterion.MaxScale)
		}
	}

	evaluation := models.Evaluation{
		SubmissionID: submissionID,
		ReviewerID:   payload.ReviewerID,
	}
	if err := evaluation.SetScores(payload.Scores); err != nil {
		return dto.EvaluationResponse{}, err
	}

	if err := s.evaluations.Upsert(ctx, &evaluation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_upsert_failed")
		return dto.EvaluationResponse{}, err
	}

	s.invalidateRanking(ctx, submission.CallID)

	if s.audit != nil {
		entityID := submissionID
		if err := s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "evaluation.record",
			EntityType: "submission",
			EntityID:   &entityID,
			Metadata:   map[string]interface{}{"reviewer_id": payload.ReviewerID},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record audit entry")
		}
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

// Grade computes sum(all active reviewers' all-criteria scores) divided by
// the criterion count. Below quorum the grade is undefined rather than
// zero; callers must not render it as a numeric score.
func (s *evaluationService) Grade(ctx context.Context, submissionID uint) (dto.GradeResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, apperr.NotFound("submission", submissionID)
		}
		return dto.GradeResponse{}, err
	}

	return s.gradeFor(ctx, submission)
}

func (s *evaluationService) gradeFor(ctx context.Context, submission models.Submission) (dto.GradeResponse, error) {
	response := dto.GradeResponse{SubmissionID: submission.ID}

	activeReviewers := map[uint]struct{}{}
	for _, modality := range models.Modalities() {
		assignments, err := s.roster.ListActive(ctx, submission.ID, modality)
		if err != nil {
			return dto.GradeResponse{}, err
		}
		if len(assignments) >= models.ActiveAssignmentLimit {
			response.QuorumReached = true
		}
		for _, assignment := range assignments {
			activeReviewers[assignment.ReviewerID] = struct{}{}
		}
	}

	evaluations, err := s.evaluations.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	var total float64
	counted := 0
	for _, evaluation := range evaluations {
		if _, ok := activeReviewers[evaluation.ReviewerID]; !ok {
			continue
		}
		for _, score := range evaluation.ScoreList() {
			total += score
		}
		counted++
	}
	response.Evaluations = counted

	if !response.QuorumReached {
		return response, nil
	}

	criterionCount := len(submission.Call.CriteriaList())
	if criterionCount == 0 {
		return response, nil
	}

	grade := total / float64(criterionCount)
	response.Grade = &grade
	response.Defined = true
	return response, nil
}

// Ranking orders a call's submissions by official grade descending with
// ties broken by ascending submission id: a deterministic total order.
func (s *evaluationService) Ranking(ctx context.Context, callID uint) (dto.RankingResponse, error) {
	cacheKey := fmt.Sprintf("ranking:call:%d", callID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.RankingResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("call_id", callID).Msg("ranking cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read ranking cache")
		}
	}

	if _, err := s.calls.GetByID(ctx, callID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RankingResponse{}, apperr.NotFound("call", callID)
		}
		return dto.RankingResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{CallID: &callID})
	if err != nil {
		return dto.RankingResponse{}, err
	}

	entries := make([]dto.RankingEntry, 0, len(submissions))
	for _, submission := range submissions {
		grade, err := s.gradeFor(ctx, submission)
		if err != nil {
			return dto.RankingResponse{}, err
		}
		entries = append(entries, dto.RankingEntry{
			SubmissionID: submission.ID,
			Title:        submission.Title,
			Grade:        grade.Grade,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		gi, gj := entries[i].Grade, entries[j].Grade
		switch {
		case gi != nil && gj != nil && *gi != *gj:
			return *gi > *gj
		case gi != nil && gj == nil:
			return true
		case gi == nil && gj != nil:
			return false
		}
		return entries[i].SubmissionID < entries[j].SubmissionID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	response := dto.RankingResponse{CallID: callID, Entries: entries}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store ranking cache")
			}
		}
	}

	return response, nil
}

func (s *evaluationService) invalidateRanking(ctx context.Context, callID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, fmt.Sprintf("ranking:call:%d", callID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("call_id", callID).Msg("failed to invalidate ranking cache")
	}
}
