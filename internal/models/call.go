package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Criterion describes one scoring dimension reviewers grade against.
type Criterion struct {
	Name     string  `json:"name"`
	MinScale float64 `json:"min_scale"`
	MaxScale float64 `json:"max_scale"`
}

// Call represents a submission track with its own window and scoring criteria.
type Call struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	SubmissionOpensAt  time.Time      `gorm:"not null" json:"submission_opens_at"`
	SubmissionClosesAt time.Time      `gorm:"not null" json:"submission_closes_at"`
	Criteria           datatypes.JSON `gorm:"type:json" json:"criteria"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// DefaultCriteria is the reference configuration: four criteria scaled 0-5,
// which puts the official grade on a 0-10 scale with two reviewers.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: "relevance", MinScale: 0, MaxScale: 5},
		{Name: "methodology", MinScale: 0, MaxScale: 5},
		{Name: "clarity", MinScale: 0, MaxScale: 5},
		{Name: "contribution", MinScale: 0, MaxScale: 5},
	}
}

// CriteriaList decodes the criteria configuration, falling back to the
// reference configuration when none was stored.
func (c Call) CriteriaList() []Criterion {
	if len(c.Criteria) == 0 {
		return DefaultCriteria()
	}

	var criteria []Criterion
	if err := json.Unmarshal(c.Criteria, &criteria); err != nil || len(criteria) == 0 {
		return DefaultCriteria()
	}
	return criteria
}

// SetCriteria encodes the criteria configuration onto the call.
func (c *Call) SetCriteria(criteria []Criterion) error {
	payload, err := json.Marshal(criteria)
	if err != nil {
		return err
	}
	c.Criteria = payload
	return nil
}

// WindowOpen reports whether the submission window is open at the given instant.
func (c Call) WindowOpen(at time.Time) bool {
	return !at.Before(c.SubmissionOpensAt) && !at.After(c.SubmissionClosesAt)
}
