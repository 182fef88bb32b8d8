package dto

import (
	"time"

	"github.com/evalhub/review-api/internal/models"
)

// EvaluationRequest describes one reviewer's per-criterion score vector.
type EvaluationRequest struct {
	ReviewerID uint      `json:"reviewer_id" validate:"required,gt=0"`
	Scores     []float64 `json:"scores" validate:"required,min=1"`
}

// EvaluationResponse serializes a recorded evaluation.
type EvaluationResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	ReviewerID   uint      `json:"reviewer_id"`
	Scores       []float64 `json:"scores"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEvaluationResponse maps an evaluation model into its API shape.
func NewEvaluationResponse(evaluation models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:           evaluation.ID,
		SubmissionID: evaluation.SubmissionID,
		ReviewerID:   evaluation.ReviewerID,
		Scores:       evaluation.ScoreList(),
		CreatedAt:    evaluation.CreatedAt,
		UpdatedAt:    evaluation.UpdatedAt,
	}
}

// GradeResponse carries the aggregated official grade. Grade is null while
// the submission is below quorum: "no grade yet" must never read as zero.
type GradeResponse struct {
	SubmissionID  uint     `json:"submission_id"`
	Grade         *float64 `json:"grade"`
	Defined       bool     `json:"defined"`
	QuorumReached bool     `json:"quorum_reached"`
	Evaluations   int      `json:"evaluations"`
}

// RankingEntry is one row of the ranking view: grade descending, ties
// broken by ascending submission id.
type RankingEntry struct {
	Position     int      `json:"position"`
	SubmissionID uint     `json:"submission_id"`
	Title        string   `json:"title"`
	Grade        *float64 `json:"grade"`
}

// RankingResponse is the ordered ranking for one call.
type RankingResponse struct {
	CallID  uint           `json:"call_id"`
	Entries []RankingEntry `json:"entries"`
}
