package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

// LifecycleService drives submission status transitions and approval
// gating. Approvals are independent per-modality merges; rejection is the
// absorbing outcome and clears both flags; finalize is an idempotent
// side-channel that never touches the approve/reject outcomes.
type LifecycleService interface {
	ChangeStatus(ctx context.Context, actor Actor, submissionID uint, payload dto.StatusChangeRequest) (dto.SubmissionResponse, error)
	Finalize(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error)
}

type lifecycleService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	audit       AuditRecorder
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLifecycleService builds the lifecycle service.
func NewLifecycleService(submissions repository.SubmissionRepository, validate *validator.Validate, audit AuditRecorder, events EventPublisher, logger zerolog.Logger) LifecycleService {
	return &lifecycleService{
		submissions: submissions,
		validator:   validate,
		audit:       audit,
		events:      events,
		logger:      logger.With().Str("component", "lifecycle_service").Logger(),
		now:         time.Now,
	}
}

func (s *lifecycleService) ChangeStatus(ctx context.Context, actor Actor, submissionID uint, payload dto.StatusChangeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	outcome := strings.ToLower(strings.TrimSpace(payload.Outcome))
	switch outcome {
	case dto.OutcomeUnderReview:
		err = s.toUnderReview(&submission)
	case dto.OutcomeReject:
		s.reject(&submission)
	default:
		// approval outcomes, including the legacy spellings
		modality, ok := dto.NormalizeModality(strings.TrimPrefix(outcome, "approve_"))
		if !ok {
			return dto.SubmissionResponse{}, apperr.ValidationField("outcome", "unknown outcome %q", payload.Outcome)
		}
		err = s.approve(&submission, modality)
	}
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.recordAudit(ctx, actor, "lifecycle."+outcome, submission.ID)
	if s.events != nil {
		s.events.Publish(ctx, EventSubmissionStatusChanged, map[string]interface{}{
			"submission_id":       submission.ID,
			"status":              submission.Status,
			"approved_exposition": submission.ApprovedExposition,
			"approved_oral":       submission.ApprovedOral,
		})
	}

	return dto.NewSubmissionResponse(submission, s.now()), nil
}

func (s *lifecycleService) toUnderReview(submission *models.Submission) error {
	if submission.Status != models.SubmissionStatusSubmitted {
		return apperr.InvalidTransition(submission.Status, models.SubmissionStatusUnderReview)
	}
	submission.Status = models.SubmissionStatusUnderReview
	return nil
}

// approve sets one modality flag without touching the other: approving
// oral after exposition keeps both true.
func (s *lifecycleService) approve(submission *models.Submission, modality models.Modality) error {
	if submission.Status == models.SubmissionStatusRejected {
		return apperr.InvalidTransition(models.SubmissionStatusRejected, "approved_"+string(modality))
	}
	switch modality {
	case models.ModalityExposition:
		submission.ApprovedExposition = true
	case models.ModalityOral:
		submission.ApprovedOral = true
	}
	return nil
}

// reject is unconditional and wins over any prior partial approval.
func (s *lifecycleService) reject(submission *models.Submission) {
	submission.Status = models.SubmissionStatusRejected
	submission.ApprovedExposition = false
	submission.ApprovedOral = false
}

// Finalize flips the finalized side-channel so author-facing views stop
// surfacing pending evaluation state. Idempotent, valid from any outcome.
func (s *lifecycleService) Finalize(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if submission.Finalized {
		return dto.NewSubmissionResponse(submission, s.now()), nil
	}

	submission.Finalized = true
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.recordAudit(ctx, actor, "lifecycle.finalize", submission.ID)
	if s.events != nil {
		s.events.Publish(ctx, EventSubmissionFinalized, map[string]interface{}{
			"submission_id": submission.ID,
		})
	}

	return dto.NewSubmissionResponse(submission, s.now()), nil
}

func (s *lifecycleService) load(ctx context.Context, submissionID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, apperr.NotFound("submission", submissionID)
		}
		return models.Submission{}, err
	}
	return submission, nil
}

func (s *lifecycleService) recordAudit(ctx context.Context, actor Actor, action string, submissionID uint) {
	if s.audit == nil {
		return
	}
	id := submissionID
	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &id,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
