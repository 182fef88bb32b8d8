package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

// VisibilityService controls whether the computed grade is exposed to the
// submission's author. Disclosure requires quorum; hiding is always allowed.
type VisibilityService interface {
	SetVisible(ctx context.Context, actor Actor, submissionID uint, payload dto.VisibilityRequest) (dto.SubmissionResponse, error)
}

type visibilityService struct {
	submissions repository.SubmissionRepository
	roster      repository.RosterRepository
	validator   *validator.Validate
	audit       AuditRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewVisibilityService builds the visibility service.
func NewVisibilityService(submissions repository.SubmissionRepository, roster repository.RosterRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) VisibilityService {
	return &visibilityService{
		submissions: submissions,
		roster:      roster,
		validator:   validate,
		audit:       audit,
		logger:      logger.With().Str("component", "visibility_service").Logger(),
		now:         time.Now,
	}
}

func (s *visibilityService) SetVisible(ctx context.Context, actor Actor, submissionID uint, payload dto.VisibilityRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, apperr.NotFound("submission", submissionID)
		}
		return dto.SubmissionResponse{}, err
	}

	visible := *payload.Visible
	if visible {
		quorum := false
		for _, modality := range models.Modalities() {
			count, err := s.roster.ActiveCount(ctx, submissionID, modality)
			if err != nil {
				return dto.SubmissionResponse{}, err
			}
			if count >= models.ActiveAssignmentLimit {
				quorum = true
				break
			}
		}
		if !quorum {
			return dto.SubmissionResponse{}, apperr.Precondition(
				"grade may not be disclosed before %d active reviewers are assigned", models.ActiveAssignmentLimit)
		}
	}

	submission.GradeVisible = visible
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.audit != nil {
		id := submission.ID
		if err := s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "visibility.set",
			EntityType: "submission",
			EntityID:   &id,
			Metadata:   map[string]interface{}{"visible": visible},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record audit entry")
		}
	}

	return dto.NewSubmissionResponse(submission, s.now()), nil
}
