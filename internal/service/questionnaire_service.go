package service

import (
	"context"
	"errors"
	"math"
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

// QuestionnaireService manages weighted question sets and the publish
// gate. A questionnaire is a draft tied 1:1 to its event, auto-created on
// first access; publishing freezes structure but not metadata.
type QuestionnaireService interface {
	GetOrCreateForEvent(ctx context.Context, eventID uint) (dto.QuestionnaireResponse, error)
	Get(ctx context.Context, id uint) (dto.QuestionnaireResponse, error)
	UpdateMetadata(ctx context.Context, actor Actor, id uint, payload dto.QuestionnaireMetadataRequest) (dto.QuestionnaireResponse, error)
	AddQuestion(ctx context.Context, actor Actor, questionnaireID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, actor Actor, questionID uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	RemoveQuestion(ctx context.Context, actor Actor, questionID uint) (dto.QuestionnaireResponse, error)
	AddAlternative(ctx context.Context, actor Actor, questionID uint, payload dto.AlternativeCreateRequest) (dto.QuestionResponse, error)
	RemoveAlternative(ctx context.Context, actor Actor, alternativeID uint) (dto.QuestionResponse, error)
	SetAlternativeCorrect(ctx context.Context, actor Actor, questionID, alternativeID uint) (dto.QuestionResponse, error)
	Publish(ctx context.Context, actor Actor, questionnaireID uint) (dto.QuestionnaireResponse, error)
}

type questionnaireService struct {
	questionnaires repository.QuestionnaireRepository
	events         repository.EventRepository
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	audit          AuditRecorder
	publisher      EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewQuestionnaireService builds the questionnaire service.
func NewQuestionnaireService(questionnaires repository.QuestionnaireRepository, events repository.EventRepository, validate *validator.Validate, audit AuditRecorder, publisher EventPublisher, logger zerolog.Logger) QuestionnaireService {
	return &questionnaireService{
		questionnaires: questionnaires,
		events:         events,
		validator:      validate,
		sanitizer:      bluemonday.UGCPolicy(),
		audit:          audit,
		publisher:      publisher,
		logger:         logger.With().Str("component", "questionnaire_service").Logger(),
		now:            time.Now,
	}
}

func (s *questionnaireService) GetOrCreateForEvent(ctx context.Context, eventID uint) (dto.QuestionnaireResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionnaireResponse{}, apperr.NotFound("event", eventID)
		}
		return dto.QuestionnaireResponse{}, err
	}

	questionnaire, err := s.questionnaires.GetByEventID(ctx, eventID)
	if err == nil {
		return dto.NewQuestionnaireResponse(questionnaire), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.QuestionnaireResponse{}, err
	}

	draft := models.Questionnaire{
		EventID:       event.ID,
		Title:         event.Title,
		PassThreshold: 60,
		MaxAttempts:   1,
	}
	if err := s.questionnaires.Create(ctx, &draft); err != nil {
		return dto.QuestionnaireResponse{}, err
	}
	s.logger.Info().Uint("event_id", eventID).Uint("questionnaire_id", draft.ID).Msg("questionnaire draft auto-created")
	return dto.NewQuestionnaireResponse(draft), nil
}

func (s *questionnaireService) Get(ctx context.Context, id uint) (dto.QuestionnaireResponse, error) {
	questionnaire, err := s.load(ctx, id)
	if err != nil {
		return dto.QuestionnaireResponse{}, err
	}
	return dto.NewQuestionnaireResponse(questionnaire), nil
}

func (s *questionnaireService) UpdateMetadata(ctx context.Context, actor Actor, id uint, payload dto.QuestionnaireMetadataRequest) (dto.QuestionnaireResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	questionnaire, err := s.load(ctx, id)
	if err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	if payload.Title != nil {
		questionnaire.Title = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if payload.PassThreshold != nil {
		questionnaire.PassThreshold = *payload.PassThreshold
	}
	if payload.MaxAttempts != nil {
		questionnaire.MaxAttempts = *payload.MaxAttempts
	}
	if payload.TimeLimitMin != nil {
		questionnaire.TimeLimitMin = *payload.TimeLimitMin
	}
	if payload.Required != nil {
		questionnaire.Required = *payload.Required
	}

	if err := s.questionnaires.Update(ctx, &questionnaire); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.update_metadata", questionnaire.ID)
	return s.Get(ctx, questionnaire.ID)
}

func (s *questionnaireService) AddQuestion(ctx context.Context, actor Actor, questionnaireID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	questionnaire, err := s.load(ctx, questionnaireID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionResponse{}, err
	}

	position, err := s.questionnaires.NextQuestionPosition(ctx, questionnaireID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		QuestionnaireID: questionnaireID,
		Kind:            payload.Kind,
		Body:            strings.TrimSpace(s.sanitizer.Sanitize(payload.Body)),
		Weight:          payload.Weight,
		Position:        position,
	}
	if err := s.questionnaires.CreateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.add_question", questionnaireID)
	return dto.NewQuestionResponse(question), nil
}

func (s *questionnaireService) UpdateQuestion(ctx context.Context, actor Actor, questionID uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, questionnaire, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionResponse{}, err
	}

	if payload.Body != nil {
		question.Body = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Body))
	}
	if payload.Weight != nil {
		question.Weight = *payload.Weight
	}

	if err := s.questionnaires.UpdateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.update_question", question.QuestionnaireID)
	return dto.NewQuestionResponse(question), nil
}

func (s *questionnaireService) RemoveQuestion(ctx context.Context, actor Actor, questionID uint) (dto.QuestionnaireResponse, error) {
	question, questionnaire, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionnaireResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	if err := s.questionnaires.DeleteQuestion(ctx, question); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.remove_question", question.QuestionnaireID)
	return s.Get(ctx, question.QuestionnaireID)
}

func (s *questionnaireService) AddAlternative(ctx context.Context, actor Actor, questionID uint, payload dto.AlternativeCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, questionnaire, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionResponse{}, err
	}
	if question.Kind != models.QuestionKindMultipleChoice {
		return dto.QuestionResponse{}, apperr.ValidationField("kind", "free-text questions take no alternatives")
	}

	position, err := s.questionnaires.NextAlternativePosition(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	alternative := models.Alternative{
		QuestionID: questionID,
		Text:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		Position:   position,
	}
	if err := s.questionnaires.CreateAlternative(ctx, &alternative); err != nil {
		return dto.QuestionResponse{}, err
	}

	// marking the new alternative correct goes through the exclusive path
	// so siblings are unmarked in the same operation
	if payload.Correct {
		if err := s.questionnaires.SetCorrectExclusive(ctx, questionID, alternative.ID); err != nil {
			return dto.QuestionResponse{}, err
		}
	}

	s.recordAudit(ctx, actor, "questionnaire.add_alternative", question.QuestionnaireID)
	return s.questionResponse(ctx, questionID)
}

func (s *questionnaireService) RemoveAlternative(ctx context.Context, actor Actor, alternativeID uint) (dto.QuestionResponse, error) {
	alternative, err := s.questionnaires.GetAlternative(ctx, alternativeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, apperr.NotFound("alternative", alternativeID)
		}
		return dto.QuestionResponse{}, err
	}

	_, questionnaire, err := s.loadQuestion(ctx, alternative.QuestionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.questionnaires.DeleteAlternative(ctx, alternative); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.remove_alternative", questionnaire.ID)
	return s.questionResponse(ctx, alternative.QuestionID)
}

func (s *questionnaireService) SetAlternativeCorrect(ctx context.Context, actor Actor, questionID, alternativeID uint) (dto.QuestionResponse, error) {
	question, questionnaire, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	if err := s.ensureDraft(questionnaire); err != nil {
		return dto.QuestionResponse{}, err
	}

	found := false
	for _, alternative := range question.Alternatives {
		if alternative.ID == alternativeID {
			found = true
			break
		}
	}
	if !found {
		return dto.QuestionResponse{}, apperr.NotFound("alternative", alternativeID)
	}

	if err := s.questionnaires.SetCorrectExclusive(ctx, questionID, alternativeID); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.set_correct", question.QuestionnaireID)
	return s.questionResponse(ctx, questionID)
}

// Publish validates the closure invariants in order and flips the one-way
// published flag. Validation happens before any write, so a failed publish
// leaves the draft untouched.
func (s *questionnaireService) Publish(ctx context.Context, actor Actor, questionnaireID uint) (dto.QuestionnaireResponse, error) {
	questionnaire, err := s.load(ctx, questionnaireID)
	if err != nil {
		return dto.QuestionnaireResponse{}, err
	}
	if questionnaire.Published {
		return dto.QuestionnaireResponse{}, apperr.Precondition("questionnaire %d is already published", questionnaireID)
	}

	if err := validateForPublish(questionnaire); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	questionnaire.Published = true
	publishedAt := s.now()
	questionnaire.PublishedAt = &publishedAt
	if err := s.questionnaires.Update(ctx, &questionnaire); err != nil {
		return dto.QuestionnaireResponse{}, err
	}

	s.recordAudit(ctx, actor, "questionnaire.publish", questionnaireID)
	if s.publisher != nil {
		s.publisher.Publish(ctx, EventQuestionnairePublished, map[string]interface{}{
			"questionnaire_id": questionnaireID,
			"event_id":         questionnaire.EventID,
		})
	}

	return s.Get(ctx, questionnaireID)
}

func validateForPublish(questionnaire models.Questionnaire) error {
	var weightSum float64
	for _, question := range questionnaire.Questions {
		weightSum += question.Weight
	}

	diff := weightSum - models.QuestionnaireWeightTotal
	if math.Abs(diff) > models.QuestionnaireWeightTolerance+1e-9 {
		if diff < 0 {
			return apperr.ValidationField("weight_sum",
				"question weight sum is %.2f, needs %.2f (add %.2f)", weightSum, models.QuestionnaireWeightTotal, -diff)
		}
		return apperr.ValidationField("weight_sum",
			"question weight sum is %.2f, needs %.2f (remove %.2f)", weightSum, models.QuestionnaireWeightTotal, diff)
	}

	for _, question := range questionnaire.Questions {
		if question.Kind != models.QuestionKindMultipleChoice {
			continue
		}
		if len(question.Alternatives) < 2 {
			return apperr.ValidationField("alternatives",
				"question %d needs at least 2 alternatives, has %d", question.Position, len(question.Alternatives))
		}
	}

	for _, question := range questionnaire.Questions {
		if question.Kind != models.QuestionKindMultipleChoice {
			continue
		}
		correct := 0
		for _, alternative := range question.Alternatives {
			if alternative.Correct {
				correct++
			}
		}
		if correct != 1 {
			return apperr.ValidationField("alternatives",
				"question %d needs exactly 1 correct alternative, has %d", question.Position, correct)
		}
	}

	return nil
}

func (s *questionnaireService) ensureDraft(questionnaire models.Questionnaire) error {
	if questionnaire.Published {
		return apperr.Precondition("questionnaire %d is published; its structure is frozen", questionnaire.ID)
	}
	return nil
}

func (s *questionnaireService) load(ctx context.Context, id uint) (models.Questionnaire, error) {
	questionnaire, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Questionnaire{}, apperr.NotFound("questionnaire", id)
		}
		return models.Questionnaire{}, err
	}
	return questionnaire, nil
}

func (s *questionnaireService) loadQuestion(ctx context.Context, questionID uint) (models.Question, models.Questionnaire, error) {
	question, err := s.questionnaires.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, models.Questionnaire{}, apperr.NotFound("question", questionID)
		}
		return models.Question{}, models.Questionnaire{}, err
	}

	questionnaire, err := s.load(ctx, question.QuestionnaireID)
	if err != nil {
		return models.Question{}, models.Questionnaire{}, err
	}
	return question, questionnaire, nil
}

func (s *questionnaireService) questionResponse(ctx context.Context, questionID uint) (dto.QuestionResponse, error) {
	question, err := s.questionnaires.GetQuestion(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	return dto.NewQuestionResponse(question), nil
}

func (s *questionnaireService) recordAudit(ctx context.Context, actor Actor, action string, questionnaireID uint) {
	if s.audit == nil {
		return
	}
	id := questionnaireID
	if err := s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "questionnaire",
		EntityID:   &id,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
