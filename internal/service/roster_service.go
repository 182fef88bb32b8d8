package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

// RosterService tracks which reviewers are assigned, revoked and restored
// per submission and modality. It is the quorum authority consumed by the
// score aggregation and visibility rules.
type RosterService interface {
	Roster(ctx context.Context, submissionID uint) (dto.RosterResponse, error)
	Assign(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterAssignRequest) (dto.RosterResponse, error)
	AssignBulk(ctx context.Context, actor Actor, payload dto.RosterBulkAssignRequest) ([]dto.RosterBulkAssignItem, error)
	Revoke(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterRevokeRequest) (dto.RosterResponse, error)
	Restore(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterRestoreRequest) (dto.RosterResponse, error)
	ActiveCount(ctx context.Context, submissionID uint, modality models.Modality) (int, error)
	QuorumReached(ctx context.Context, submissionID uint) (bool, error)
}

type rosterService struct {
	roster      repository.RosterRepository
	reviewers   repository.ReviewerRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewRosterService builds the roster service.
func NewRosterService(roster repository.RosterRepository, reviewers repository.ReviewerRepository, submissions repository.SubmissionRepository, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) RosterService {
	return &rosterService{
		roster:      roster,
		reviewers:   reviewers,
		submissions: submissions,
		validator:   validate,
		audit:       audit,
		logger:      logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) Roster(ctx context.Context, submissionID uint) (dto.RosterResponse, error) {
	if err := s.ensureSubmission(ctx, submissionID); err != nil {
		return dto.RosterResponse{}, err
	}

	assignments, err := s.roster.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.RosterResponse{}, err
	}
	return dto.NewRosterResponse(submissionID, assignments), nil
}

func (s *rosterService) Assign(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterAssignRequest) (dto.RosterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RosterResponse{}, err
	}

	modality, ok := dto.NormalizeModality(payload.Modality)
	if !ok {
		return dto.RosterResponse{}, apperr.ValidationField("modality", "unknown modality %q", payload.Modality)
	}

	if err := s.assignOne(ctx, submissionID, modality, payload.ReviewerIDs); err != nil {
		return dto.RosterResponse{}, err
	}

	s.recordAudit(ctx, actor, "roster.assign", submissionID, map[string]interface{}{
		"modality":     string(modality),
		"reviewer_ids": payload.ReviewerIDs,
	})

	return s.Roster(ctx, submissionID)
}

// AssignBulk applies one reviewer set across many submissions. Each
// submission's invariant check runs independently: a failure on one never
// aborts its validated siblings.
func (s *rosterService) AssignBulk(ctx context.Context, actor Actor, payload dto.RosterBulkAssignRequest) ([]dto.RosterBulkAssignItem, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	modality, ok := dto.NormalizeModality(payload.Modality)
	if !ok {
		return nil, apperr.ValidationField("modality", "unknown modality %q", payload.Modality)
	}

	items := make([]dto.RosterBulkAssignItem, 0, len(payload.SubmissionIDs))
	for _, submissionID := range payload.SubmissionIDs {
		item := dto.RosterBulkAssignItem{SubmissionID: submissionID, Success: true}
		if err := s.assignOne(ctx, submissionID, modality, payload.ReviewerIDs); err != nil {
			item.Success = false
			item.Error = err.Error()
		}
		items = append(items, item)
	}

	s.recordAudit(ctx, actor, "roster.assign_bulk", 0, map[string]interface{}{
		"modality":       string(modality),
		"reviewer_ids":   payload.ReviewerIDs,
		"submission_ids": payload.SubmissionIDs,
	})

	return items, nil
}

func (s *rosterService) assignOne(ctx context.Context, submissionID uint, modality models.Modality, reviewerIDs []uint) error {
	if len(reviewerIDs) == 0 {
		return apperr.ValidationField("reviewer_ids", "at least one reviewer is required")
	}
	if len(reviewerIDs) > models.ActiveAssignmentLimit {
		return apperr.Capacity("reviewer slots", models.ActiveAssignmentLimit, len(reviewerIDs))
	}

	seen := make(map[uint]struct{}, len(reviewerIDs))
	for _, id := range reviewerIDs {
		if _, dup := seen[id]; dup {
			return apperr.ValidationField("reviewer_ids", "reviewer %d listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	if err := s.ensureSubmission(ctx, submissionID); err != nil {
		return err
	}

	reviewers, err := s.reviewers.GetByIDs(ctx, reviewerIDs)
	if err != nil {
		return err
	}
	known := make(map[uint]struct{}, len(reviewers))
	for _, reviewer := range reviewers {
		known[reviewer.ID] = struct{}{}
	}
	for _, id := range reviewerIDs {
		if _, ok := known[id]; !ok {
			return apperr.NotFound("reviewer", id)
		}
	}

	return s.roster.Mutate(ctx, submissionID, modality, func(tx repository.RosterTx, current []models.ReviewerAssignment) error {
		activeCount := 0
		byReviewer := make(map[uint]*models.ReviewerAssignment, len(current))
		for i := range current {
			byReviewer[current[i].ReviewerID] = &current[i]
			if !current[i].Revoked {
				activeCount++
			}
		}

		for _, id := range reviewerIDs {
			if existing, ok := byReviewer[id]; ok && !existing.Revoked {
				return apperr.ValidationField("reviewer_ids", "reviewer %d already holds an active assignment", id)
			}
			if activeCount >= models.ActiveAssignmentLimit {
				return apperr.Capacity("reviewer slots", models.ActiveAssignmentLimit, activeCount)
			}

			if existing, ok := byReviewer[id]; ok {
				// revoked slot for this reviewer: reuse it instead of duplicating
				existing.Revoked = false
				if err := tx.Save(existing); err != nil {
					return err
				}
			} else {
				assignment := models.ReviewerAssignment{
					SubmissionID: submissionID,
					ReviewerID:   id,
					Modality:     modality,
				}
				if err := tx.Create(&assignment); err != nil {
					return err
				}
			}
			activeCount++
		}
		return nil
	})
}

func (s *rosterService) Revoke(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterRevokeRequest) (dto.RosterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RosterResponse{}, err
	}

	modality, ok := dto.NormalizeModality(payload.Modality)
	if !ok {
		return dto.RosterResponse{}, apperr.ValidationField("modality", "unknown modality %q", payload.Modality)
	}

	if err := s.ensureSubmission(ctx, submissionID); err != nil {
		return dto.RosterResponse{}, err
	}

	err := s.roster.Mutate(ctx, submissionID, modality, func(tx repository.RosterTx, current []models.ReviewerAssignment) error {
		for i := range current {
			if current[i].ReviewerID == payload.ReviewerID && !current[i].Revoked {
				current[i].Revoked = true
				return tx.Save(&current[i])
			}
		}
		return apperr.NotFound("active assignment", 0)
	})
	if err != nil {
		return dto.RosterResponse{}, err
	}

	s.recordAudit(ctx, actor, "roster.revoke", submissionID, map[string]interface{}{
		"modality":    string(modality),
		"reviewer_id": payload.ReviewerID,
	})

	return s.Roster(ctx, submissionID)
}

func (s *rosterService) Restore(ctx context.Context, actor Actor, submissionID uint, payload dto.RosterRestoreRequest) (dto.RosterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RosterResponse{}, err
	}

	modality, ok := dto.NormalizeModality(payload.Modality)
	if !ok {
		return dto.RosterResponse{}, apperr.ValidationField("modality", "unknown modality %q", payload.Modality)
	}

	if err := s.ensureSubmission(ctx, submissionID); err != nil {
		return dto.RosterResponse{}, err
	}

	err := s.roster.Mutate(ctx, submissionID, modality, func(tx repository.RosterTx, current []models.ReviewerAssignment) error {
		activeCount := 0
		var revoked *models.ReviewerAssignment
		for i := range current {
			if !current[i].Revoked {
				activeCount++
			} else if current[i].ReviewerID == payload.ReviewerID {
				revoked = &current[i]
			}
		}
		if revoked == nil {
			return apperr.NotFound("revoked assignment", 0)
		}
		if activeCount >= models.ActiveAssignmentLimit {
			return apperr.Capacity("reviewer slots", models.ActiveAssignmentLimit, activeCount)
		}

		revoked.Revoked = false
		return tx.Save(revoked)
	})
	if err != nil {
		return dto.RosterResponse{}, err
	}

	s.recordAudit(ctx, actor, "roster.restore", submissionID, map[string]interface{}{
		"modality":    string(modality),
		"reviewer_id": payload.ReviewerID,
	})

	return s.Roster(ctx, submissionID)
}

func (s *rosterService) ActiveCount(ctx context.Context, submissionID uint, modality models.Modality) (int, error) {
	return s.roster.ActiveCount(ctx, submissionID, modality)
}

// QuorumReached reports whether at least one modality carries the full
// two active reviewers.
func (s *rosterService) QuorumReached(ctx context.Context, submissionID uint) (bool, error) {
	for _, modality := range models.Modalities() {
		count, err := s.roster.ActiveCount(ctx, submissionID, modality)
		if err != nil {
			return false, err
		}
		if count >= models.ActiveAssignmentLimit {
			return true, nil
		}
	}
	return false, nil
}

func (s *rosterService) ensureSubmission(ctx context.Context, submissionID uint) error {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("submission", submissionID)
		}
		return err
	}
	return nil
}

func (s *rosterService) recordAudit(ctx context.Context, actor Actor, action string, submissionID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	entry := AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		Metadata:   metadata,
	}
	if submissionID > 0 {
		id := submissionID
		entry.EntityID = &id
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
