package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Evaluation holds one reviewer's per-criterion scores for one submission.
// Resubmitting overwrites the previous score vector in place.
type Evaluation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index:idx_evaluation_reviewer,unique,priority:1" json:"submission_id"`
	ReviewerID   uint           `gorm:"not null;index:idx_evaluation_reviewer,unique,priority:2" json:"reviewer_id"`
	Scores       datatypes.JSON `gorm:"type:json;not null" json:"scores"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ScoreList decodes the ordered per-criterion score vector.
func (e Evaluation) ScoreList() []float64 {
	var scores []float64
	if err := json.Unmarshal(e.Scores, &scores); err != nil {
		return nil
	}
	return scores
}

// SetScores encodes the ordered per-criterion score vector.
func (e *Evaluation) SetScores(scores []float64) error {
	payload, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	e.Scores = payload
	return nil
}
