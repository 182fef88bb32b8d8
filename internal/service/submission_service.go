package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/apperr"
	"github.com/evalhub/review-api/internal/dto"
	"github.com/evalhub/review-api/internal/models"
	"github.com/evalhub/review-api/internal/repository"
)

// RoleCoordinator may operate the admin review surface; authors own their
// drafts; reviewers submit evaluations.
const (
	RoleCoordinator = "coordinator"
	RoleReviewer    = "reviewer"
	RoleAuthor      = "author"
)

// SubmissionService is the author-facing surface: drafting, editing within
// the call window, handing in, and reading back the visible outcome.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error)
	SubmitForReview(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	calls       repository.CallRepository
	grades      EvaluationService
	validator   *validator.Validate
	strict      *bluemonday.Policy
	body        *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService builds the submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, calls repository.CallRepository, grades EvaluationService, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		calls:       calls,
		grades:      grades,
		validator:   validate,
		strict:      bluemonday.StrictPolicy(),
		body:        bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	call, err := s.calls.GetByID(ctx, payload.CallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, apperr.NotFound("call", payload.CallID)
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if !call.WindowOpen(now) {
		return dto.SubmissionResponse{}, apperr.Precondition("submission window for call %d is closed", call.ID)
	}

	submission := models.Submission{
		CallID:   call.ID,
		AuthorID: actor.ID,
		Title:    strings.TrimSpace(s.strict.Sanitize(payload.Title)),
		Abstract: strings.TrimSpace(s.strict.Sanitize(payload.Abstract)),
		Body:     s.body.Sanitize(payload.Body),
		Status:   models.SubmissionStatusDraft,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Call = call
	return dto.NewSubmissionResponse(submission, now), nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.authorized(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	response := dto.NewSubmissionResponse(submission, s.now())

	// the grade is attached only once disclosed; below quorum it stays
	// null so no UI can mistake "not graded yet" for zero
	if submission.GradeVisible && s.grades != nil {
		grade, err := s.grades.Grade(ctx, submission.ID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if grade.Defined {
			response.OfficialGrade = grade.Grade
		}
	}

	return response, nil
}

func (s *submissionService) ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error) {
	authorID := actor.ID
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AuthorID: &authorID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *submissionService) Update(ctx context.Context, actor Actor, id uint, payload dto.SubmissionUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.authorized(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if !submission.Editable(now) {
		return dto.SubmissionResponse{}, apperr.Precondition("submission %d is no longer editable", submission.ID)
	}

	if payload.Title != nil {
		submission.Title = strings.TrimSpace(s.strict.Sanitize(*payload.Title))
	}
	if payload.Abstract != nil {
		submission.Abstract = strings.TrimSpace(s.strict.Sanitize(*payload.Abstract))
	}
	if payload.Body != nil {
		submission.Body = s.body.Sanitize(*payload.Body)
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, now), nil
}

func (s *submissionService) SubmitForReview(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.authorized(ctx, actor, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if submission.Status != models.SubmissionStatusDraft {
		return dto.SubmissionResponse{}, apperr.InvalidTransition(submission.Status, models.SubmissionStatusSubmitted)
	}

	now := s.now()
	if !submission.Call.WindowOpen(now) {
		return dto.SubmissionResponse{}, apperr.Precondition("submission window for call %d is closed", submission.CallID)
	}

	submission.Status = models.SubmissionStatusSubmitted
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, now), nil
}

// authorized loads the submission and enforces ownership: authors see only
// their own records, coordinators see everything. A foreign submission
// reads as not found rather than leaking its existence.
func (s *submissionService) authorized(ctx context.Context, actor Actor, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, apperr.NotFound("submission", id)
		}
		return models.Submission{}, err
	}

	if actor.Role != RoleCoordinator && submission.AuthorID != actor.ID {
		return models.Submission{}, apperr.NotFound("submission", id)
	}
	return submission, nil
}
