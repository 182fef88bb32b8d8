package dto

import (
	"time"

	"github.com/evalhub/review-api/internal/models"
)

// QuestionnaireMetadataRequest updates questionnaire metadata. Metadata
// stays editable after publishing; structure does not.
type QuestionnaireMetadataRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=3,max=255"`
	PassThreshold *float64 `json:"pass_threshold" validate:"omitempty,gte=0,lte=100"`
	MaxAttempts   *int     `json:"max_attempts" validate:"omitempty,gte=1"`
	TimeLimitMin  *int     `json:"time_limit_min" validate:"omitempty,gte=0"`
	Required      *bool    `json:"required"`
}

// QuestionCreateRequest appends a question at the next ordinal position.
type QuestionCreateRequest struct {
	Kind   string  `json:"kind" validate:"required,oneof=multiple_choice free_text"`
	Body   string  `json:"body" validate:"required,min=3"`
	Weight float64 `json:"weight" validate:"required,gt=0,lte=10"`
}

// QuestionUpdateRequest edits a question in place.
type QuestionUpdateRequest struct {
	Body   *string  `json:"body" validate:"omitempty,min=3"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0,lte=10"`
}

// AlternativeCreateRequest appends an alternative to a question.
type AlternativeCreateRequest struct {
	Text    string `json:"text" validate:"required,min=1"`
	Correct bool   `json:"correct"`
}

// AlternativeResponse serializes one selectable answer.
type AlternativeResponse struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"question_id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
	Position   int    `json:"position"`
}

// QuestionResponse serializes one weighted question.
type QuestionResponse struct {
	ID              uint                  `json:"id"`
	QuestionnaireID uint                  `json:"questionnaire_id"`
	Kind            string                `json:"kind"`
	Body            string                `json:"body"`
	Weight          float64               `json:"weight"`
	Position        int                   `json:"position"`
	Alternatives    []AlternativeResponse `json:"alternatives"`
}

// QuestionnaireResponse serializes a questionnaire with its ordered
// questions and the running weight sum authors watch while editing.
type QuestionnaireResponse struct {
	ID            uint               `json:"id"`
	EventID       uint               `json:"event_id"`
	Title         string             `json:"title"`
	PassThreshold float64            `json:"pass_threshold"`
	MaxAttempts   int                `json:"max_attempts"`
	TimeLimitMin  int                `json:"time_limit_min"`
	Required      bool               `json:"required"`
	Published     bool               `json:"published"`
	PublishedAt   *time.Time         `json:"published_at"`
	WeightSum     float64            `json:"weight_sum"`
	Questions     []QuestionResponse `json:"questions"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewAlternativeResponse maps an alternative model into its API shape.
func NewAlternativeResponse(alternative models.Alternative) AlternativeResponse {
	return AlternativeResponse{
		ID:         alternative.ID,
		QuestionID: alternative.QuestionID,
		Text:       alternative.Text,
		Correct:    alternative.Correct,
		Position:   alternative.Position,
	}
}

// NewQuestionResponse maps a question model into its API shape.
func NewQuestionResponse(question models.Question) QuestionResponse {
	alternatives := make([]AlternativeResponse, 0, len(question.Alternatives))
	for _, alternative := range question.Alternatives {
		alternatives = append(alternatives, NewAlternativeResponse(alternative))
	}
	return QuestionResponse{
		ID:              question.ID,
		QuestionnaireID: question.QuestionnaireID,
		Kind:            question.Kind,
		Body:            question.Body,
		Weight:          question.Weight,
		Position:        question.Position,
		Alternatives:    alternatives,
	}
}

// NewQuestionnaireResponse maps a questionnaire model into its API shape.
func NewQuestionnaireResponse(questionnaire models.Questionnaire) QuestionnaireResponse {
	questions := make([]QuestionResponse, 0, len(questionnaire.Questions))
	var weightSum float64
	for _, question := range questionnaire.Questions {
		questions = append(questions, NewQuestionResponse(question))
		weightSum += question.Weight
	}
	return QuestionnaireResponse{
		ID:            questionnaire.ID,
		EventID:       questionnaire.EventID,
		Title:         questionnaire.Title,
		PassThreshold: questionnaire.PassThreshold,
		MaxAttempts:   questionnaire.MaxAttempts,
		TimeLimitMin:  questionnaire.TimeLimitMin,
		Required:      questionnaire.Required,
		Published:     questionnaire.Published,
		PublishedAt:   questionnaire.PublishedAt,
		WeightSum:     weightSum,
		Questions:     questions,
		CreatedAt:     questionnaire.CreatedAt,
		UpdatedAt:     questionnaire.UpdatedAt,
	}
}
