package dto

import (
	"time"

	"github.com/evalhub/review-api/internal/models"
)

// SubmissionCreateRequest describes the payload for creating a draft.
type SubmissionCreateRequest struct {
	CallID   uint   `json:"call_id" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Abstract string `json:"abstract" validate:"omitempty,max=5000"`
	Body     string `json:"body" validate:"omitempty"`
}

// SubmissionUpdateRequest describes the payload for editing a draft.
type SubmissionUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=255"`
	Abstract *string `json:"abstract" validate:"omitempty,max=5000"`
	Body     *string `json:"body" validate:"omitempty"`
}

// CallLite summarizes a call in submission responses.
type CallLite struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	SubmissionOpensAt  time.Time `json:"submission_opens_at"`
	SubmissionClosesAt time.Time `json:"submission_closes_at"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
// OfficialGrade stays null until quorum is reached and the grade was made
// visible; a null grade is "no grade yet", never zero.
type SubmissionResponse struct {
	ID                 uint      `json:"id"`
	CallID             uint      `json:"call_id"`
	AuthorID           uint      `json:"author_id"`
	Title              string    `json:"title"`
	Abstract           string    `json:"abstract"`
	Body               string    `json:"body"`
	Status             string    `json:"status"`
	LegacyStatus       string    `json:"legacy_status"`
	ApprovedExposition bool      `json:"approved_exposition"`
	ApprovedOral       bool      `json:"approved_oral"`
	Finalized          bool      `json:"finalized"`
	GradeVisible       bool      `json:"grade_visible"`
	EvaluationPending  bool      `json:"evaluation_pending"`
	Editable           bool      `json:"editable"`
	OfficialGrade      *float64  `json:"official_grade"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Call               CallLite  `json:"call"`
}

// NewSubmissionResponse maps a submission model into its API shape.
func NewSubmissionResponse(submission models.Submission, now time.Time) SubmissionResponse {
	pending := submission.Status == models.SubmissionStatusUnderReview && !submission.Finalized

	return SubmissionResponse{
		ID:                 submission.ID,
		CallID:             submission.CallID,
		AuthorID:           submission.AuthorID,
		Title:              submission.Title,
		Abstract:           submission.Abstract,
		Body:               submission.Body,
		Status:             submission.Status,
		LegacyStatus:       LegacyStatus(submission),
		ApprovedExposition: submission.ApprovedExposition,
		ApprovedOral:       submission.ApprovedOral,
		Finalized:          submission.Finalized,
		GradeVisible:       submission.GradeVisible,
		EvaluationPending:  pending,
		Editable:           submission.Editable(now),
		CreatedAt:          submission.CreatedAt,
		UpdatedAt:          submission.UpdatedAt,
		Call: CallLite{
			ID:                 submission.Call.ID,
			Title:              submission.Call.Title,
			SubmissionOpensAt:  submission.Call.SubmissionOpensAt,
			SubmissionClosesAt: submission.Call.SubmissionClosesAt,
		},
	}
}

// NewSubmissionResponseSlice maps submissions into their API shape.
func NewSubmissionResponseSlice(submissions []models.Submission, now time.Time) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission, now))
	}
	return responses
}
